package service

import (
	"context"
	"sort"
	"time"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/pkg/logger"
	"quiz_extended_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// StatsService 周期性重算每个测验的群体统计并发布快照。
// 学员提交从不等待这里，读侧拿到的始终是上一次发布的结果
type StatsService struct {
	ContentRepo *repository.ContentRepository
	AttemptRepo *repository.AttemptRepository
	StatsRepo   *repository.StatsRepository

	now func() time.Time
}

func NewStatsService(contentRepo *repository.ContentRepository, attemptRepo *repository.AttemptRepository, statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{
		ContentRepo: contentRepo,
		AttemptRepo: attemptRepo,
		StatsRepo:   statsRepo,
		now:         time.Now,
	}
}

// RecomputeAll 被后台定时任务触发；单个测验失败不影响其他测验
func (s *StatsService) RecomputeAll(ctx context.Context) error {
	quizIDs, err := s.ContentRepo.ListQuizIDs()
	if err != nil {
		return err
	}

	for _, quizID := range quizIDs {
		if err := s.Recompute(ctx, quizID); err != nil {
			if logger.Log != nil {
				logger.Log.Error("cohort stats recompute failed",
					zap.String("quizId", quizID), zap.Error(err))
			}
			continue
		}
	}

	monitoring.StatsRecomputes.Inc()
	return nil
}

// Recompute 用每个用户最近一次提交的成绩统计均值和前20%分数线
func (s *StatsService) Recompute(ctx context.Context, quizID string) error {
	attempts, err := s.AttemptRepo.ListSubmittedByQuiz(quizID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		// 还没人交过卷，不发布快照，读侧自然呈现"数据不足"
		return nil
	}

	withRisk := make([]float64, 0, len(attempts))
	withoutRisk := make([]float64, 0, len(attempts))
	var sumRisk, sumSafe float64
	for _, a := range attempts {
		withRisk = append(withRisk, a.ScoreWithRisk)
		withoutRisk = append(withoutRisk, a.Score)
		sumRisk += a.ScoreWithRisk
		sumSafe += a.Score
	}

	n := float64(len(attempts))
	stats := &model.CohortStats{
		QuizID:                 quizID,
		TotalUsers:             len(attempts),
		AvgScoreWithRisk:       sumRisk / n,
		AvgScoreWithoutRisk:    sumSafe / n,
		Top20CutoffWithRisk:    top20Cutoff(withRisk),
		Top20CutoffWithoutRisk: top20Cutoff(withoutRisk),
		ComputedAt:             s.now(),
	}

	return s.StatsRepo.Publish(ctx, stats)
}

// top20Cutoff 进入前20%所需的最低分（人数向上取整）
func top20Cutoff(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	idx := (len(sorted) + 4) / 5
	if idx < 1 {
		idx = 1
	}
	return sorted[idx-1]
}
