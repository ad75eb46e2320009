package service

import (
	"context"
	"encoding/json"
	"time"

	"quiz_extended_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const progressChannel = "progress:changed"

// ProgressNotifier 进度变化的对外广播，其他界面据此刷新，
// 引擎不关心有没有订阅者
type ProgressNotifier interface {
	ProgressChanged(userID uint, courseID, source string)
}

// ProgressEvent 广播出去的事件体
type ProgressEvent struct {
	UserID   uint      `json:"userId"`
	CourseID string    `json:"courseId"`
	Source   string    `json:"source"` // submit / completion
	At       time.Time `json:"at"`
}

// RedisProgressNotifier 经Redis发布订阅广播，失败只记日志不影响主流程
type RedisProgressNotifier struct {
	RDB *redis.Client
}

func NewRedisProgressNotifier(rdb *redis.Client) *RedisProgressNotifier {
	return &RedisProgressNotifier{RDB: rdb}
}

func (n *RedisProgressNotifier) ProgressChanged(userID uint, courseID, source string) {
	event := ProgressEvent{
		UserID:   userID,
		CourseID: courseID,
		Source:   source,
		At:       time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := n.RDB.Publish(context.Background(), progressChannel, payload).Err(); err != nil {
		if logger.Log != nil {
			logger.Log.Warn("progress event publish failed", zap.Error(err))
		}
	}
}
