package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz_extended_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// SnapshotRepository 进行中作答的自动保存快照，整键覆盖写，放在Redis里
// 以便页面刷新、换端、服务重启后都能恢复
type SnapshotRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewSnapshotRepository(rdb *redis.Client, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{RDB: rdb, TTL: ttl}
}

func snapshotKey(userID uint, quizID string) string {
	return fmt.Sprintf("autosave:%d:%s", userID, quizID)
}

func (r *SnapshotRepository) Save(ctx context.Context, snap *model.AttemptSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, snapshotKey(snap.UserID, snap.QuizID), payload, r.TTL).Err()
}

// Get 不存在时返回 nil 而非错误
func (r *SnapshotRepository) Get(ctx context.Context, userID uint, quizID string) (*model.AttemptSnapshot, error) {
	payload, err := r.RDB.Get(ctx, snapshotKey(userID, quizID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var snap model.AttemptSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, userID uint, quizID string) error {
	return r.RDB.Del(ctx, snapshotKey(userID, quizID)).Err()
}

func (r *SnapshotRepository) Exists(ctx context.Context, userID uint, quizID string) (bool, error) {
	n, err := r.RDB.Exists(ctx, snapshotKey(userID, quizID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
