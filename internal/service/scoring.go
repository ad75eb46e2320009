package service

import (
	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/model"
)

// GradedAnswer 判分后的单题输入，计分只依赖这组值，不做任何IO
type GradedAnswer struct {
	QuestionID string
	Points     int
	Answered   bool
	Correct    bool
	Risked     bool
}

// ComputeScore 从一套判分结果计算双轨成绩，纯函数：
//   - score        保守口径，完全无视押注标记
//   - scoreWithRisk 押注口径，仅对已作答且押注的题应用奖惩乘数
//
// 两个分数都归一化到 [0, ScaleMax]，可直接和群体统计比较。
// 未作答的题即使带押注标记也按未作答计（押注只附着在已提交的答案上）
func ComputeScore(answers []GradedAnswer, cfg config.ScoringConfig) model.ScoreResult {
	var result model.ScoreResult

	maxRaw := 0.0
	rawSafe := 0.0
	rawRisk := 0.0

	for _, a := range answers {
		points := float64(a.Points)
		if points <= 0 {
			points = 1
		}
		maxRaw += points

		if !a.Answered {
			result.UnansweredCount++
			continue
		}

		if a.Correct {
			result.CorrectCount++
			rawSafe += points
			if a.Risked {
				result.CorrectWithRisk++
				rawRisk += points * cfg.RiskBonusMultiplier
			} else {
				result.CorrectWithoutRisk++
				rawRisk += points
			}
		} else {
			result.IncorrectCount++
			rawSafe -= points * cfg.IncorrectPenalty
			if a.Risked {
				result.IncorrectWithRisk++
				rawRisk -= points * cfg.RiskPenaltyMultiplier
			} else {
				result.IncorrectWithoutRisk++
				rawRisk -= points * cfg.IncorrectPenalty
			}
		}
	}

	result.Score = normalize(rawSafe, maxRaw, cfg.ScaleMax)
	result.ScoreWithRisk = normalize(rawRisk, maxRaw, cfg.ScaleMax)
	return result
}

// normalize 把原始分折算到统一刻度；没有题目时取刻度下限，不产生除零
func normalize(raw, maxRaw, scaleMax float64) float64 {
	if maxRaw <= 0 {
		return 0
	}
	score := raw / maxRaw * scaleMax
	if score < 0 {
		return 0
	}
	if score > scaleMax {
		return scaleMax
	}
	return score
}
