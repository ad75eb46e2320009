package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz_extended_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// StatsRepository 群体统计快照的发布与读取。聚合任务写表并刷新Redis缓存，
// 读路径优先走缓存，未命中回源数据库
type StatsRepository struct {
	DB       *gorm.DB
	RDB      *redis.Client
	CacheTTL time.Duration
}

func NewStatsRepository(db *gorm.DB, rdb *redis.Client) *StatsRepository {
	return &StatsRepository{DB: db, RDB: rdb, CacheTTL: 10 * time.Minute}
}

func statsCacheKey(quizID string) string {
	return fmt.Sprintf("cohortstats:%s", quizID)
}

// GetByQuiz 不存在统计时返回 nil 而非错误（尚未聚合过）
func (r *StatsRepository) GetByQuiz(ctx context.Context, quizID string) (*model.CohortStats, error) {
	if r.RDB != nil {
		payload, err := r.RDB.Get(ctx, statsCacheKey(quizID)).Bytes()
		if err == nil {
			var stats model.CohortStats
			if err := json.Unmarshal(payload, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	var stats model.CohortStats
	err := r.DB.Where("quiz_id = ?", quizID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	r.cache(ctx, &stats)
	return &stats, nil
}

// Publish 落表并刷新缓存，作为新的已发布快照
func (r *StatsRepository) Publish(ctx context.Context, stats *model.CohortStats) error {
	var existing model.CohortStats
	err := r.DB.Where("quiz_id = ?", stats.QuizID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := r.DB.Create(stats).Error; err != nil {
			return err
		}
	} else {
		stats.ID = existing.ID
		stats.CreatedAt = existing.CreatedAt
		if err := r.DB.Save(stats).Error; err != nil {
			return err
		}
	}

	r.cache(ctx, stats)
	return nil
}

func (r *StatsRepository) cache(ctx context.Context, stats *model.CohortStats) {
	if r.RDB == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	// 缓存刷新失败不影响主流程
	_ = r.RDB.Set(ctx, statsCacheKey(stats.QuizID), payload, r.CacheTTL).Err()
}
