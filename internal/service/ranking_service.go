package service

import (
	"context"
	"sort"
	"time"

	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"
)

// RankingService 把个人成绩和群体统计拼成对比视图，只读，
// 从不回写统计快照
type RankingService struct {
	AttemptRepo *repository.AttemptRepository
	StatsRepo   *repository.StatsRepository
	Defaults    config.RankingConfig
}

func NewRankingService(attemptRepo *repository.AttemptRepository, statsRepo *repository.StatsRepository, defaults config.RankingConfig) *RankingService {
	return &RankingService{AttemptRepo: attemptRepo, StatsRepo: statsRepo, Defaults: defaults}
}

// PercentileDelta 个人分相对群体均值的带符号差；统计未就绪时明确报
// 数据不足，绝不折算成0误导前端
func (s *RankingService) PercentileDelta(score float64, stats *model.CohortStats, riskMode bool) (float64, error) {
	if stats == nil || stats.TotalUsers == 0 {
		return 0, util.ErrInsufficientData
	}
	if riskMode {
		return score - stats.AvgScoreWithRisk, nil
	}
	return score - stats.AvgScoreWithoutRisk, nil
}

type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uint      `json:"userId"`
	AttemptID     string    `json:"attemptId"`
	Score         float64   `json:"score"`
	SubmittedAt   time.Time `json:"submittedAt"`
	IsCurrentUser bool      `json:"isCurrentUser,omitempty"`
}

// LeaderboardSlice 头部榜单加当前用户邻域两段，已在头部出现的用户
// 不在邻域里重复
type LeaderboardSlice struct {
	QuizID   string             `json:"quizId"`
	RiskMode bool               `json:"riskMode"`
	Top      []LeaderboardEntry `json:"top"`
	Relative []LeaderboardEntry `json:"relative"`
	UserRank *int               `json:"userRank,omitempty"`
}

// Leaderboard 排序规则：分数降序，同分者先提交的在前
// （奖励先到先得的稳定发挥，而不是最后一刻的重交）
func (s *RankingService) Leaderboard(ctx context.Context, viewer model.Viewer, quizID string, topN, neighborWindow int, riskMode bool) (*LeaderboardSlice, error) {
	if topN <= 0 {
		topN = s.Defaults.TopN
	}
	if neighborWindow < 0 {
		neighborWindow = s.Defaults.NeighborWindow
	}

	attempts, err := s.AttemptRepo.ListSubmittedByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(attempts))
	for _, a := range attempts {
		score := a.Score
		if riskMode {
			score = a.ScoreWithRisk
		}
		entries = append(entries, LeaderboardEntry{
			UserID:        a.UserID,
			AttemptID:     a.ID,
			Score:         score,
			SubmittedAt:   *a.SubmittedAt,
			IsCurrentUser: a.UserID == viewer.UserID,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	slice := &LeaderboardSlice{
		QuizID:   quizID,
		RiskMode: riskMode,
		Top:      []LeaderboardEntry{},
		Relative: []LeaderboardEntry{},
	}

	for i := 0; i < len(entries) && i < topN; i++ {
		slice.Top = append(slice.Top, entries[i])
	}

	userIdx := -1
	for i := range entries {
		if entries[i].UserID == viewer.UserID {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		// 当前用户没有提交过，榜单照常返回，用户字段留空
		return slice, nil
	}

	rank := entries[userIdx].Rank
	slice.UserRank = &rank

	lo := userIdx - neighborWindow
	if lo < 0 {
		lo = 0
	}
	hi := userIdx + neighborWindow
	if hi > len(entries)-1 {
		hi = len(entries) - 1
	}
	for i := lo; i <= hi; i++ {
		if entries[i].Rank <= len(slice.Top) {
			continue // 已经在头部榜单里，不重复
		}
		slice.Relative = append(slice.Relative, entries[i])
	}

	return slice, nil
}

// QuizStatsResult 群体统计视图。没有足够数据时明确置位，
// 各项数字一律不给，避免把0当成真实均值展示
type QuizStatsResult struct {
	QuizID           string             `json:"quizId"`
	InsufficientData bool               `json:"insufficientData"`
	Stats            *model.CohortStats `json:"stats,omitempty"`
	UserResult       *model.ScoreResult `json:"userResult,omitempty"`
	DeltaWithRisk    *float64           `json:"deltaWithRisk,omitempty"`
	DeltaWithoutRisk *float64           `json:"deltaWithoutRisk,omitempty"`
}

// QuizStatistics 统计快照可能滞后一个聚合周期，这里给出的是
// "当前已知均值"，不是实时值
func (s *RankingService) QuizStatistics(ctx context.Context, viewer model.Viewer, quizID string) (*QuizStatsResult, error) {
	stats, err := s.StatsRepo.GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	result := &QuizStatsResult{QuizID: quizID}
	if stats == nil || stats.TotalUsers == 0 {
		result.InsufficientData = true
		return result, nil
	}
	result.Stats = stats

	attempt, err := s.AttemptRepo.FindLatestSubmitted(viewer.UserID, quizID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return result, nil
	}

	userResult := attempt.Result()
	result.UserResult = &userResult

	deltaRisk, err := s.PercentileDelta(attempt.ScoreWithRisk, stats, true)
	if err == nil {
		result.DeltaWithRisk = &deltaRisk
	}
	deltaSafe, err := s.PercentileDelta(attempt.Score, stats, false)
	if err == nil {
		result.DeltaWithoutRisk = &deltaSafe
	}

	return result, nil
}
