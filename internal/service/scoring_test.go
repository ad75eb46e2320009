package service

import (
	"testing"

	"quiz_extended_backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func defaultScoring() config.ScoringConfig {
	return config.ScoringConfig{
		ScaleMax:              100,
		IncorrectPenalty:      0,
		RiskBonusMultiplier:   1.25,
		RiskPenaltyMultiplier: 0.5,
	}
}

func gradedSet() []GradedAnswer {
	// 10题各1分：6对（4押注2未押注），2错（1押注1未押注），2未答
	answers := []GradedAnswer{
		{QuestionID: "q1", Points: 1, Answered: true, Correct: true, Risked: true},
		{QuestionID: "q2", Points: 1, Answered: true, Correct: true, Risked: true},
		{QuestionID: "q3", Points: 1, Answered: true, Correct: true, Risked: true},
		{QuestionID: "q4", Points: 1, Answered: true, Correct: true, Risked: true},
		{QuestionID: "q5", Points: 1, Answered: true, Correct: true, Risked: false},
		{QuestionID: "q6", Points: 1, Answered: true, Correct: true, Risked: false},
		{QuestionID: "q7", Points: 1, Answered: true, Correct: false, Risked: true},
		{QuestionID: "q8", Points: 1, Answered: true, Correct: false, Risked: false},
		{QuestionID: "q9", Points: 1, Answered: false},
		{QuestionID: "q10", Points: 1, Answered: false},
	}
	return answers
}

func TestComputeScoreDualTrack(t *testing.T) {
	result := ComputeScore(gradedSet(), defaultScoring())

	// 保守口径无视押注：6/10
	assert.InDelta(t, 60.0, result.Score, 1e-9)
	// 押注口径：4*1.25 + 2*1 - 1*0.5 = 6.5
	assert.InDelta(t, 65.0, result.ScoreWithRisk, 1e-9)

	assert.Equal(t, 6, result.CorrectCount)
	assert.Equal(t, 2, result.IncorrectCount)
	assert.Equal(t, 2, result.UnansweredCount)
	assert.Equal(t, 4, result.CorrectWithRisk)
	assert.Equal(t, 2, result.CorrectWithoutRisk)
	assert.Equal(t, 1, result.IncorrectWithRisk)
	assert.Equal(t, 1, result.IncorrectWithoutRisk)
}

func TestComputeScoreDeterministic(t *testing.T) {
	first := ComputeScore(gradedSet(), defaultScoring())
	second := ComputeScore(gradedSet(), defaultScoring())
	assert.Equal(t, first, second)
}

func TestComputeScoreRiskedUnansweredCountsAsUnanswered(t *testing.T) {
	answers := []GradedAnswer{
		{QuestionID: "q1", Points: 1, Answered: false, Risked: true},
		{QuestionID: "q2", Points: 1, Answered: true, Correct: true},
	}
	result := ComputeScore(answers, defaultScoring())
	assert.Equal(t, 1, result.UnansweredCount)
	assert.Equal(t, 0, result.IncorrectWithRisk)
	assert.InDelta(t, 50.0, result.Score, 1e-9)
	assert.InDelta(t, 50.0, result.ScoreWithRisk, 1e-9)
}

func TestComputeScoreClampsAtZero(t *testing.T) {
	answers := []GradedAnswer{
		{QuestionID: "q1", Points: 5, Answered: true, Correct: false, Risked: true},
		{QuestionID: "q2", Points: 5, Answered: true, Correct: false, Risked: true},
	}
	result := ComputeScore(answers, defaultScoring())
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.ScoreWithRisk)
}

func TestComputeScoreWeightsByPoints(t *testing.T) {
	answers := []GradedAnswer{
		{QuestionID: "q1", Points: 3, Answered: true, Correct: true, Risked: true},
		{QuestionID: "q2", Points: 1, Answered: true, Correct: false},
	}
	result := ComputeScore(answers, defaultScoring())
	assert.InDelta(t, 75.0, result.Score, 1e-9)
	// 3*1.25 / 4 * 100
	assert.InDelta(t, 93.75, result.ScoreWithRisk, 1e-9)
}

func TestComputeScoreEmptyQuiz(t *testing.T) {
	result := ComputeScore(nil, defaultScoring())
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.ScoreWithRisk)
	assert.Equal(t, 0, result.CorrectCount)
}

func TestComputeScoreZeroPointQuestionsCountAsOne(t *testing.T) {
	answers := []GradedAnswer{
		{QuestionID: "q1", Points: 0, Answered: true, Correct: true},
		{QuestionID: "q2", Points: 0, Answered: true, Correct: false},
	}
	result := ComputeScore(answers, defaultScoring())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
}
