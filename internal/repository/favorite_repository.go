package repository

import (
	"errors"

	"quiz_extended_backend/internal/model"

	"gorm.io/gorm"
)

type FavoriteRepository struct {
	DB *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{DB: db}
}

// Toggle 收藏开关；返回切换后的状态
func (r *FavoriteRepository) Toggle(userID uint, questionID string) (favorited bool, err error) {
	err = r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.FavoriteQuestion
		findErr := tx.Where("user_id = ? AND question_id = ?", userID, questionID).First(&existing).Error
		if findErr == nil {
			favorited = false
			return tx.Unscoped().Delete(&existing).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		favorited = true
		return tx.Create(&model.FavoriteQuestion{UserID: userID, QuestionID: questionID}).Error
	})
	return favorited, err
}

func (r *FavoriteRepository) ListByUser(userID uint) ([]model.FavoriteQuestion, error) {
	var favs []model.FavoriteQuestion
	err := r.DB.Where("user_id = ?", userID).Order("created_at desc").Find(&favs).Error
	return favs, err
}

func (r *FavoriteRepository) IsFavorited(userID uint, questionID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.FavoriteQuestion{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).Count(&count).Error
	return count > 0, err
}
