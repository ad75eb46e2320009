package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"quiz_extended_backend/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Lesson{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.Completion{},
		&model.FavoriteQuestion{},
		&model.CohortStats{},
	))
	return db
}

// memorySnapshots 进程内的 SnapshotStore，替代测试里不可用的Redis
type memorySnapshots struct {
	mu            sync.Mutex
	snaps         map[string]*model.AttemptSnapshot
	saveCalls     int
	failSaves     bool
	failNextSaves int
	failGets      bool
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{snaps: make(map[string]*model.AttemptSnapshot)}
}

func (m *memorySnapshots) Save(ctx context.Context, snap *model.AttemptSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.failSaves {
		return fmt.Errorf("store unavailable")
	}
	if m.failNextSaves > 0 {
		m.failNextSaves--
		return fmt.Errorf("store unavailable")
	}
	copied := *snap
	m.snaps[AutosaveKey(snap.UserID, snap.QuizID)] = &copied
	return nil
}

func (m *memorySnapshots) Get(ctx context.Context, userID uint, quizID string) (*model.AttemptSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGets {
		return nil, fmt.Errorf("store unavailable")
	}
	snap, ok := m.snaps[AutosaveKey(userID, quizID)]
	if !ok {
		return nil, nil
	}
	copied := *snap
	return &copied, nil
}

func (m *memorySnapshots) Delete(ctx context.Context, userID uint, quizID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, AutosaveKey(userID, quizID))
	return nil
}

func (m *memorySnapshots) Exists(ctx context.Context, userID uint, quizID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snaps[AutosaveKey(userID, quizID)]
	return ok, nil
}

func (m *memorySnapshots) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// recordingNotifier 记录进度变更广播，便于断言只在实际变化时触发
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) ProgressChanged(userID uint, courseID, source string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%d:%s:%s", userID, courseID, source))
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
