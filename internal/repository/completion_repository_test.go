package repository

import (
	"fmt"
	"strings"
	"testing"

	"quiz_extended_backend/internal/model"

	"github.com/stretchr/testify/assert"
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
	require.NoError(t, db.AutoMigrate(&model.Completion{}, &model.FavoriteQuestion{}, &model.Question{}))
	return db
}

func quizKey(contentID string) model.CompletionKey {
	return model.CompletionKey{ContentID: contentID, ContentType: model.ContentTypeQuiz}
}

func stepKey(lessonID string, idx int) model.CompletionKey {
	return model.CompletionKey{
		ContentID:      lessonID,
		ContentType:    model.ContentTypeStep,
		ParentLessonID: lessonID,
		StepIndex:      idx,
	}
}

func TestCompletionUpsertIdempotent(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	created, err := repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	repo.DB.Model(&model.Completion{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCompletionUpsertKeepsEarliestTimestamp(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	_, err := repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)

	var first model.Completion
	require.NoError(t, repo.DB.First(&first).Error)

	_, err = repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)

	var second model.Completion
	require.NoError(t, repo.DB.First(&second).Error)
	assert.True(t, first.CompletedAt.Equal(second.CompletedAt))
}

func TestCompletionCompositeKeyIsolation(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	// 同一 contentId 在不同维度下是不同的完成记录
	_, err := repo.Upsert(1, "course-1", quizKey("q"))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-2", quizKey("q"))
	require.NoError(t, err)
	_, err = repo.Upsert(2, "course-1", quizKey("q"))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-1", stepKey("q", 0))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-1", stepKey("q", 1))
	require.NoError(t, err)

	var count int64
	repo.DB.Model(&model.Completion{}).Count(&count)
	assert.Equal(t, int64(5), count)

	exists, err := repo.Exists(1, "course-1", stepKey("q", 1))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(1, "course-1", stepKey("q", 2))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCompletionDelete(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	removed, err := repo.Delete(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)

	removed, err = repo.Delete(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.True(t, removed)

	exists, err := repo.Exists(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.False(t, exists)

	// 取消后可以重新标记，唯一索引不被残留行占住
	created, err := repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCompletionCountByType(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	_, err := repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-1", quizKey("quiz-2"))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-1", stepKey("lesson-1", 0))
	require.NoError(t, err)

	counts, err := repo.CountByType(1, "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.ContentTypeQuiz])
	assert.Equal(t, int64(1), counts[model.ContentTypeStep])
}

func TestCompletedQuizIDs(t *testing.T) {
	repo := NewCompletionRepository(newTestDB(t))

	_, err := repo.Upsert(1, "course-1", quizKey("quiz-1"))
	require.NoError(t, err)
	_, err = repo.Upsert(1, "course-1", stepKey("lesson-1", 0))
	require.NoError(t, err)

	ids, err := repo.CompletedQuizIDs(1, "course-1")
	require.NoError(t, err)
	assert.True(t, ids["quiz-1"])
	assert.False(t, ids["lesson-1"])
}

func TestFavoriteToggle(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)

	favorited, err := repo.Toggle(1, "question-1")
	require.NoError(t, err)
	assert.True(t, favorited)

	favorited, err = repo.Toggle(1, "question-1")
	require.NoError(t, err)
	assert.False(t, favorited)

	favorited, err = repo.Toggle(1, "question-1")
	require.NoError(t, err)
	assert.True(t, favorited)

	list, err := repo.ListByUser(1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// 状态查询与开关一致，且按用户隔离
	is, err := repo.IsFavorited(1, "question-1")
	require.NoError(t, err)
	assert.True(t, is)
	is, err = repo.IsFavorited(2, "question-1")
	require.NoError(t, err)
	assert.False(t, is)
}
