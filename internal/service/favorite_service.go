package service

import (
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
)

// FavoriteService 题目收藏，独立于作答生命周期的开关
type FavoriteService struct {
	FavoriteRepo *repository.FavoriteRepository
	ContentRepo  *repository.ContentRepository
}

func NewFavoriteService(favoriteRepo *repository.FavoriteRepository, contentRepo *repository.ContentRepository) *FavoriteService {
	return &FavoriteService{FavoriteRepo: favoriteRepo, ContentRepo: contentRepo}
}

// Toggle 返回切换后的收藏状态
func (s *FavoriteService) Toggle(viewer model.Viewer, questionID string) (bool, error) {
	if _, err := s.ContentRepo.FindQuestionByID(questionID); err != nil {
		return false, err
	}
	return s.FavoriteRepo.Toggle(viewer.UserID, questionID)
}

// IsFavorited 查询当前用户对某题的收藏状态
func (s *FavoriteService) IsFavorited(viewer model.Viewer, questionID string) (bool, error) {
	if _, err := s.ContentRepo.FindQuestionByID(questionID); err != nil {
		return false, err
	}
	return s.FavoriteRepo.IsFavorited(viewer.UserID, questionID)
}

func (s *FavoriteService) List(viewer model.Viewer) ([]model.FavoriteQuestion, error) {
	return s.FavoriteRepo.ListByUser(viewer.UserID)
}
