package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/pkg/logger"
	"quiz_extended_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// SnapshotWriter 自动保存的落盘目标
type SnapshotWriter interface {
	Save(ctx context.Context, snap *model.AttemptSnapshot) error
}

// Autosaver 按 (user, quiz) 键做防抖的快照写入。
// 同键的新调度会取消并替换未触发的旧调度（cancel-and-replace），
// 快照在触发时刻构建，保证写出的永远是当时最新的完整状态。
// 写失败静默退避重试，绝不打断学员作答
type Autosaver struct {
	store      SnapshotWriter
	debounce   time.Duration
	maxRetries int
	backoff    time.Duration

	mu      sync.Mutex
	pending map[string]*autosaveTask
}

type autosaveTask struct {
	timer *time.Timer
	build func() *model.AttemptSnapshot
}

func NewAutosaver(store SnapshotWriter, debounce time.Duration, maxRetries int, backoff time.Duration) *Autosaver {
	return &Autosaver{
		store:      store,
		debounce:   debounce,
		maxRetries: maxRetries,
		backoff:    backoff,
		pending:    make(map[string]*autosaveTask),
	}
}

func AutosaveKey(userID uint, quizID string) string {
	return fmt.Sprintf("%d:%s", userID, quizID)
}

// Schedule 登记一次防抖写入；build 在触发时刻才被调用
func (a *Autosaver) Schedule(key string, build func() *model.AttemptSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if old, ok := a.pending[key]; ok {
		old.timer.Stop()
	}

	task := &autosaveTask{build: build}
	task.timer = time.AfterFunc(a.debounce, func() {
		a.fire(key, task)
	})
	a.pending[key] = task
}

func (a *Autosaver) fire(key string, task *autosaveTask) {
	a.mu.Lock()
	if a.pending[key] != task {
		// 已被更新的调度取代
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	a.mu.Unlock()

	a.write(task.build())
}

// Flush 立刻写出该键的最新状态（退出作答、优雅停机时调用）
func (a *Autosaver) Flush(key string) {
	a.mu.Lock()
	task, ok := a.pending[key]
	if ok {
		task.timer.Stop()
		delete(a.pending, key)
	}
	a.mu.Unlock()

	if ok {
		a.write(task.build())
	}
}

// Cancel 丢弃该键未触发的写入（提交成功或放弃作答后快照已无意义）
func (a *Autosaver) Cancel(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if task, ok := a.pending[key]; ok {
		task.timer.Stop()
		delete(a.pending, key)
	}
}

// FlushAll 停机前兜底，把所有挂起的快照写出去
func (a *Autosaver) FlushAll() {
	a.mu.Lock()
	tasks := make([]*autosaveTask, 0, len(a.pending))
	for key, task := range a.pending {
		task.timer.Stop()
		tasks = append(tasks, task)
		delete(a.pending, key)
	}
	a.mu.Unlock()

	for _, task := range tasks {
		a.write(task.build())
	}
}

func (a *Autosaver) write(snap *model.AttemptSnapshot) {
	if snap == nil {
		return
	}

	ctx := context.Background()
	var err error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(a.backoff * time.Duration(attempt))
		}
		if err = a.store.Save(ctx, snap); err == nil {
			monitoring.AutosaveWrites.WithLabelValues("ok").Inc()
			return
		}
		if logger.Log != nil {
			logger.Log.Warn("autosave write failed, will retry",
				zap.Uint("userId", snap.UserID),
				zap.String("quizId", snap.QuizID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
	}

	monitoring.AutosaveWrites.WithLabelValues("failed").Inc()
	if logger.Log != nil {
		logger.Log.Error("autosave retries exhausted, snapshot dropped",
			zap.Uint("userId", snap.UserID),
			zap.String("quizId", snap.QuizID),
			zap.Error(err))
	}
}
