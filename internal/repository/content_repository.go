package repository

import (
	"errors"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/util"

	"gorm.io/gorm"
)

// ContentRepository 面向内容编辑系统产出的课程结构，本服务只读
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

func (r *ContentRepository) FindQuizByID(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (r *ContentRepository) FindLessonByID(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.First(&lesson, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *ContentRepository) ListQuestions(quizID string) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).Order("order_index asc").Find(&qs).Error
	return qs, err
}

func (r *ContentRepository) FindQuestionByID(id string) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *ContentRepository) ListLessons(courseID string) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).Order("order_index asc").Find(&lessons).Error
	return lessons, err
}

// ListQuizzesByLesson 按作者编排的顺序返回课时下的测验
func (r *ContentRepository) ListQuizzesByLesson(lessonID string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("parent_lesson_id = ?", lessonID).Order("order_index asc").Find(&quizzes).Error
	return quizzes, err
}

func (r *ContentRepository) ListQuizIDs() ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.Quiz{}).Pluck("id", &ids).Error
	return ids, err
}

// CourseContentTotals 课程各类内容的总量，用于进度百分比的分母
type CourseContentTotals struct {
	Lessons int64
	Quizzes int64
	Steps   int64
}

func (r *ContentRepository) CountCourseContent(courseID string) (*CourseContentTotals, error) {
	var totals CourseContentTotals

	if err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&totals.Lessons).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&model.Quiz{}).Where("course_id = ?", courseID).Count(&totals.Quizzes).Error; err != nil {
		return nil, err
	}

	var stepSum *int64
	if err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).
		Select("SUM(step_count)").Scan(&stepSum).Error; err != nil {
		return nil, err
	}
	if stepSum != nil {
		totals.Steps = *stepSum
	}

	return &totals, nil
}
