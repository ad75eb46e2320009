package service

import (
	"testing"
	"time"

	"quiz_extended_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotFor(userID uint, quizID string, elapsed int) func() *model.AttemptSnapshot {
	return func() *model.AttemptSnapshot {
		return &model.AttemptSnapshot{
			AttemptID:      "a1",
			UserID:         userID,
			QuizID:         quizID,
			ElapsedSeconds: elapsed,
			SavedAt:        time.Now(),
		}
	}
}

func TestAutosaverDebounceCollapsesBursts(t *testing.T) {
	store := newMemorySnapshots()
	saver := NewAutosaver(store, 30*time.Millisecond, 0, time.Millisecond)

	key := AutosaveKey(1, "quiz-1")
	saver.Schedule(key, snapshotFor(1, "quiz-1", 10))
	saver.Schedule(key, snapshotFor(1, "quiz-1", 11))
	saver.Schedule(key, snapshotFor(1, "quiz-1", 12))

	time.Sleep(120 * time.Millisecond)

	// 连发三次只落盘一次，且是最后登记的状态
	assert.Equal(t, 1, store.saveCount())
	snap, err := store.Get(t.Context(), 1, "quiz-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 12, snap.ElapsedSeconds)
}

func TestAutosaverCancelDropsPendingWrite(t *testing.T) {
	store := newMemorySnapshots()
	saver := NewAutosaver(store, 30*time.Millisecond, 0, time.Millisecond)

	key := AutosaveKey(2, "quiz-1")
	saver.Schedule(key, snapshotFor(2, "quiz-1", 5))
	saver.Cancel(key)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, store.saveCount())
}

func TestAutosaverFlushWritesImmediately(t *testing.T) {
	store := newMemorySnapshots()
	saver := NewAutosaver(store, time.Hour, 0, time.Millisecond)

	key := AutosaveKey(3, "quiz-1")
	saver.Schedule(key, snapshotFor(3, "quiz-1", 7))
	saver.Flush(key)

	assert.Equal(t, 1, store.saveCount())
	snap, err := store.Get(t.Context(), 3, "quiz-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 7, snap.ElapsedSeconds)

	// 再次 Flush 无挂起任务，不应重复写
	saver.Flush(key)
	assert.Equal(t, 1, store.saveCount())
}

func TestAutosaverFlushAll(t *testing.T) {
	store := newMemorySnapshots()
	saver := NewAutosaver(store, time.Hour, 0, time.Millisecond)

	saver.Schedule(AutosaveKey(1, "quiz-1"), snapshotFor(1, "quiz-1", 1))
	saver.Schedule(AutosaveKey(2, "quiz-2"), snapshotFor(2, "quiz-2", 2))
	saver.FlushAll()

	assert.Equal(t, 2, store.saveCount())
}

func TestAutosaverRetriesThenGivesUp(t *testing.T) {
	store := newMemorySnapshots()
	store.failSaves = true
	saver := NewAutosaver(store, 10*time.Millisecond, 2, time.Millisecond)

	saver.Schedule(AutosaveKey(4, "quiz-1"), snapshotFor(4, "quiz-1", 1))
	time.Sleep(150 * time.Millisecond)

	// 首次加两次重试
	assert.Equal(t, 3, store.saveCount())
}
