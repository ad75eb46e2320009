package service

import (
	"testing"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCompletionHarness(t *testing.T) (*CompletionService, *recordingNotifier, *gorm.DB) {
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewCompletionService(
		repository.NewCompletionRepository(db),
		repository.NewContentRepository(db),
		notifier,
	)
	return svc, notifier, db
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	svc, notifier, _ := newCompletionHarness(t)
	key := model.CompletionKey{ContentID: "video-1", ContentType: model.ContentTypeVideo}

	require.NoError(t, svc.MarkComplete(student, "course-1", key))
	require.NoError(t, svc.MarkComplete(student, "course-1", key))

	done, err := svc.IsCompleted(student, "course-1", key)
	require.NoError(t, err)
	assert.True(t, done)

	// 只有第一次标记产生变化，广播一次
	assert.Equal(t, 1, notifier.count())
}

func TestUnmarkCompleteMissingRecordIsNoop(t *testing.T) {
	svc, notifier, _ := newCompletionHarness(t)
	key := model.CompletionKey{ContentID: "video-1", ContentType: model.ContentTypeVideo}

	require.NoError(t, svc.UnmarkComplete(student, "course-1", key))
	assert.Equal(t, 0, notifier.count())

	require.NoError(t, svc.MarkComplete(student, "course-1", key))
	require.NoError(t, svc.UnmarkComplete(student, "course-1", key))
	assert.Equal(t, 2, notifier.count())

	done, err := svc.IsCompleted(student, "course-1", key)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestStepKeyValidation(t *testing.T) {
	svc, _, db := newCompletionHarness(t)
	require.NoError(t, db.Create(&model.Lesson{
		UUIDBase: model.UUIDBase{ID: "lesson-1"}, CourseID: "course-1", Title: "L1", StepCount: 3,
	}).Error)

	// step 缺父课时或序号都定位不了
	err := svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID:   "lesson-1",
		ContentType: model.ContentTypeStep,
		StepIndex:   2,
	})
	assert.ErrorIs(t, err, util.ErrInvalidContentType)

	err = svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID:      "lesson-1",
		ContentType:    model.ContentTypeStep,
		ParentLessonID: "lesson-1",
		StepIndex:      model.NoStepIndex,
	})
	assert.ErrorIs(t, err, util.ErrInvalidContentType)

	// 父课时不存在
	err = svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID:      "lesson-9",
		ContentType:    model.ContentTypeStep,
		ParentLessonID: "lesson-9",
		StepIndex:      0,
	})
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	// 序号超出课时步骤数
	err = svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID:      "lesson-1",
		ContentType:    model.ContentTypeStep,
		ParentLessonID: "lesson-1",
		StepIndex:      3,
	})
	assert.ErrorIs(t, err, util.ErrInvalidContentType)

	err = svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID:      "lesson-1",
		ContentType:    model.ContentTypeStep,
		ParentLessonID: "lesson-1",
		StepIndex:      0,
	})
	assert.NoError(t, err)
}

func TestStepsWithDifferentIndicesAreDistinct(t *testing.T) {
	svc, _, db := newCompletionHarness(t)
	require.NoError(t, db.Create(&model.Lesson{
		UUIDBase: model.UUIDBase{ID: "lesson-1"}, CourseID: "course-1", Title: "L1", StepCount: 3,
	}).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.MarkComplete(student, "course-1", model.CompletionKey{
			ContentID:      "lesson-1",
			ContentType:    model.ContentTypeStep,
			ParentLessonID: "lesson-1",
			StepIndex:      i,
		}))
	}

	done, err := svc.IsCompleted(student, "course-1", model.CompletionKey{
		ContentID:      "lesson-1",
		ContentType:    model.ContentTypeStep,
		ParentLessonID: "lesson-1",
		StepIndex:      1,
	})
	require.NoError(t, err)
	assert.True(t, done)

	progress, err := svc.CourseProgress(student, "course-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), progress.CompletedByType[model.ContentTypeStep])
}

func TestCompletionIsolatedByCourse(t *testing.T) {
	svc, _, _ := newCompletionHarness(t)
	key := model.CompletionKey{ContentID: "quiz-1", ContentType: model.ContentTypeQuiz}

	require.NoError(t, svc.MarkComplete(student, "course-1", key))

	// 同一内容被克隆到别的课程后是另一条记录
	done, err := svc.IsCompleted(student, "course-2", key)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCourseProgressTotals(t *testing.T) {
	svc, _, db := newCompletionHarness(t)

	require.NoError(t, db.Create(&model.Lesson{
		UUIDBase: model.UUIDBase{ID: "lesson-1"}, CourseID: "course-1", Title: "L1", StepCount: 4,
	}).Error)
	require.NoError(t, db.Create(&model.Lesson{
		UUIDBase: model.UUIDBase{ID: "lesson-2"}, CourseID: "course-1", Title: "L2", StepCount: 2,
	}).Error)
	require.NoError(t, db.Create(&model.Quiz{
		UUIDBase: model.UUIDBase{ID: "quiz-1"}, ParentLessonID: "lesson-1", CourseID: "course-1", Title: "Q1",
	}).Error)

	require.NoError(t, svc.MarkComplete(student, "course-1", model.CompletionKey{
		ContentID: "quiz-1", ContentType: model.ContentTypeQuiz, ParentLessonID: "lesson-1",
	}))

	progress, err := svc.CourseProgress(student, "course-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), progress.TotalByType[model.ContentTypeLesson])
	assert.Equal(t, int64(1), progress.TotalByType[model.ContentTypeQuiz])
	assert.Equal(t, int64(6), progress.TotalByType[model.ContentTypeStep])
	assert.Equal(t, int64(1), progress.CompletedByType[model.ContentTypeQuiz])
}
