package repository

import (
	"errors"
	"time"

	"quiz_extended_backend/internal/model"

	"gorm.io/gorm"
)

type CompletionRepository struct {
	DB *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{DB: db}
}

func (r *CompletionRepository) find(tx *gorm.DB, userID uint, courseID string, key model.CompletionKey) (*model.Completion, error) {
	var c model.Completion
	err := tx.Where(
		"user_id = ? AND course_id = ? AND content_id = ? AND content_type = ? AND parent_lesson_id = ? AND step_index = ?",
		userID, courseID, key.ContentID, key.ContentType, key.ParentLessonID, key.StepIndex,
	).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Upsert 按完整复合键去重；已存在时不动原纪录（保留最早的完成时间）
func (r *CompletionRepository) Upsert(userID uint, courseID string, key model.CompletionKey) (created bool, err error) {
	key = key.Normalized()

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := r.find(tx, userID, courseID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		created = true
		return tx.Create(&model.Completion{
			UserID:         userID,
			CourseID:       courseID,
			ContentID:      key.ContentID,
			ContentType:    key.ContentType,
			ParentLessonID: key.ParentLessonID,
			StepIndex:      key.StepIndex,
			CompletedAt:    time.Now(),
		}).Error
	})
	return created, err
}

// Delete 删除指定复合键的完成记录；记录不存在时静默成功
func (r *CompletionRepository) Delete(userID uint, courseID string, key model.CompletionKey) (removed bool, err error) {
	key = key.Normalized()
	// 物理删除，软删除的残留行会占住复合唯一索引，阻碍重新标记
	res := r.DB.Unscoped().Where(
		"user_id = ? AND course_id = ? AND content_id = ? AND content_type = ? AND parent_lesson_id = ? AND step_index = ?",
		userID, courseID, key.ContentID, key.ContentType, key.ParentLessonID, key.StepIndex,
	).Delete(&model.Completion{})
	return res.RowsAffected > 0, res.Error
}

func (r *CompletionRepository) Exists(userID uint, courseID string, key model.CompletionKey) (bool, error) {
	c, err := r.find(r.DB, userID, courseID, key.Normalized())
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// CountByType 按内容类型聚合某用户在某课程下的完成数
func (r *CompletionRepository) CountByType(userID uint, courseID string) (map[model.ContentType]int64, error) {
	type row struct {
		ContentType model.ContentType
		Cnt         int64
	}
	var rows []row
	err := r.DB.Model(&model.Completion{}).
		Select("content_type, COUNT(*) as cnt").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Group("content_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ContentType]int64, len(rows))
	for _, r := range rows {
		counts[r.ContentType] = r.Cnt
	}
	return counts, nil
}

// CompletedQuizIDs 用户在课程下已完成的测验ID集合，导航用
func (r *CompletionRepository) CompletedQuizIDs(userID uint, courseID string) (map[string]bool, error) {
	var ids []string
	err := r.DB.Model(&model.Completion{}).
		Where("user_id = ? AND course_id = ? AND content_type = ?", userID, courseID, model.ContentTypeQuiz).
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
