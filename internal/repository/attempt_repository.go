package repository

import (
	"errors"
	"sort"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/util"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.DB.First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindInProgress 查找 (user, quiz) 的进行中记录；不存在返回 nil 而非错误
func (r *AttemptRepository) FindInProgress(userID uint, quizID string) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Where("user_id = ? AND quiz_id = ? AND status = ?",
		userID, quizID, model.AttemptStatusInProgress).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// FindLatestSubmitted 最近一次已提交的记录；用于重复提交时幂等返回既有成绩
func (r *AttemptRepository) FindLatestSubmitted(userID uint, quizID string) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Where("user_id = ? AND quiz_id = ? AND status = ?",
		userID, quizID, model.AttemptStatusSubmitted).
		Order("submitted_at desc").First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Submit 在单个事务里落盘已提交的 attempt 和全部答题明细
func (r *AttemptRepository) Submit(attempt *model.Attempt, answers []model.AttemptAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}
		// 重试场景下可能残留旧明细，先清掉再写入
		if err := tx.Where("attempt_id = ?", attempt.ID).Delete(&model.AttemptAnswer{}).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		return tx.Create(&answers).Error
	})
}

func (r *AttemptRepository) GetAnswers(attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// DeleteInProgress 丢弃进行中的记录（学员选择"重新开始"）
func (r *AttemptRepository) DeleteInProgress(userID uint, quizID string) error {
	return r.DB.Where("user_id = ? AND quiz_id = ? AND status = ?",
		userID, quizID, model.AttemptStatusInProgress).Delete(&model.Attempt{}).Error
}

// ListSubmittedByQuiz 返回每个用户最近一次已提交的记录，按提交时间升序稳定
func (r *AttemptRepository) ListSubmittedByQuiz(quizID string) ([]model.Attempt, error) {
	var all []model.Attempt
	err := r.DB.Where("quiz_id = ? AND status = ?", quizID, model.AttemptStatusSubmitted).
		Order("submitted_at asc").Find(&all).Error
	if err != nil {
		return nil, err
	}

	// 每用户只保留最近一次提交
	latest := make(map[uint]int, len(all))
	for i := range all {
		latest[all[i].UserID] = i
	}

	result := make([]model.Attempt, 0, len(latest))
	for _, idx := range latest {
		result = append(result, all[idx])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(*result[j].SubmittedAt)
	})
	return result, nil
}
