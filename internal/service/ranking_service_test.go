package service

import (
	"testing"
	"time"

	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPercentileDelta(t *testing.T) {
	svc := &RankingService{}

	t.Run("no stats means insufficient data", func(t *testing.T) {
		_, err := svc.PercentileDelta(80, nil, true)
		assert.ErrorIs(t, err, util.ErrInsufficientData)
	})

	t.Run("empty cohort means insufficient data, never zero", func(t *testing.T) {
		_, err := svc.PercentileDelta(80, &model.CohortStats{TotalUsers: 0}, true)
		assert.ErrorIs(t, err, util.ErrInsufficientData)
	})

	t.Run("signed delta against the matching average", func(t *testing.T) {
		stats := &model.CohortStats{
			TotalUsers:          10,
			AvgScoreWithRisk:    70,
			AvgScoreWithoutRisk: 65,
		}

		delta, err := svc.PercentileDelta(80, stats, true)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, delta, 1e-9)

		delta, err = svc.PercentileDelta(60, stats, false)
		require.NoError(t, err)
		assert.InDelta(t, -5.0, delta, 1e-9)
	})
}

func seedSubmitted(t *testing.T, db *gorm.DB, userID uint, quizID string, score, scoreWithRisk float64, submittedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Attempt{
		UserID:        userID,
		QuizID:        quizID,
		CourseID:      "course-1",
		Status:        model.AttemptStatusSubmitted,
		StartedAt:     submittedAt.Add(-10 * time.Minute),
		SubmittedAt:   &submittedAt,
		Score:         score,
		ScoreWithRisk: scoreWithRisk,
	}).Error)
}

func newRankingHarness(t *testing.T) (*RankingService, *gorm.DB) {
	db := newTestDB(t)
	svc := NewRankingService(
		repository.NewAttemptRepository(db),
		nil,
		config.RankingConfig{TopN: 3, NeighborWindow: 1},
	)
	return svc, db
}

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	svc, db := newRankingHarness(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedSubmitted(t, db, 1, "quiz-1", 90, 95, base.Add(3*time.Minute))
	seedSubmitted(t, db, 2, "quiz-1", 90, 95, base.Add(1*time.Minute)) // 同分，先交卷
	seedSubmitted(t, db, 3, "quiz-1", 70, 80, base.Add(2*time.Minute))

	board, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 3}, "quiz-1", 2, 0, true)
	require.NoError(t, err)

	require.Len(t, board.Top, 2)
	// 同分者先提交的排前
	assert.Equal(t, uint(2), board.Top[0].UserID)
	assert.Equal(t, 1, board.Top[0].Rank)
	assert.Equal(t, uint(1), board.Top[1].UserID)
	assert.Equal(t, 2, board.Top[1].Rank)

	require.NotNil(t, board.UserRank)
	assert.Equal(t, 3, *board.UserRank)
}

func TestLeaderboardRiskModeSwitchesScoreTrack(t *testing.T) {
	svc, db := newRankingHarness(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// 保守分高的用户在押注口径下垫底
	seedSubmitted(t, db, 1, "quiz-1", 90, 50, base.Add(time.Minute))
	seedSubmitted(t, db, 2, "quiz-1", 60, 85, base.Add(2*time.Minute))

	withRisk, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 1}, "quiz-1", 5, 0, true)
	require.NoError(t, err)
	assert.Equal(t, uint(2), withRisk.Top[0].UserID)

	withoutRisk, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 1}, "quiz-1", 5, 0, false)
	require.NoError(t, err)
	assert.Equal(t, uint(1), withoutRisk.Top[0].UserID)
}

func TestLeaderboardRelativeWindowSkipsTopEntries(t *testing.T) {
	svc, db := newRankingHarness(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 6; i++ {
		seedSubmitted(t, db, uint(i), "quiz-1", float64(100-i*10), float64(100-i*10), base.Add(time.Duration(i)*time.Minute))
	}

	// 用户4排第4，头部是1-2名，邻域应只含3、4、5
	board, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 4}, "quiz-1", 2, 1, true)
	require.NoError(t, err)

	require.Len(t, board.Top, 2)
	require.Len(t, board.Relative, 3)
	assert.Equal(t, 3, board.Relative[0].Rank)
	assert.Equal(t, 4, board.Relative[1].Rank)
	assert.True(t, board.Relative[1].IsCurrentUser)
	assert.Equal(t, 5, board.Relative[2].Rank)
}

func TestLeaderboardViewerWithoutSubmission(t *testing.T) {
	svc, db := newRankingHarness(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmitted(t, db, 1, "quiz-1", 80, 80, base)

	board, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 42}, "quiz-1", 3, 1, true)
	require.NoError(t, err)

	assert.Nil(t, board.UserRank)
	assert.Empty(t, board.Relative)
	assert.Len(t, board.Top, 1)
}

func TestLeaderboardUsesLatestSubmissionPerUser(t *testing.T) {
	svc, db := newRankingHarness(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedSubmitted(t, db, 1, "quiz-1", 50, 50, base)
	seedSubmitted(t, db, 1, "quiz-1", 95, 95, base.Add(time.Hour)) // 重考后的成绩

	board, err := svc.Leaderboard(t.Context(), model.Viewer{UserID: 1}, "quiz-1", 5, 0, false)
	require.NoError(t, err)

	require.Len(t, board.Top, 1)
	assert.InDelta(t, 95.0, board.Top[0].Score, 1e-9)
}
