package model

import (
	"time"
)

const (
	QuizDifficultyEasy   = "easy"
	QuizDifficultyMedium = "medium"
	QuizDifficultyHard   = "hard"
)

// Lesson 课程下的课时，内容由外部的内容编辑系统维护，本服务只读
// swagger:model Lesson
type Lesson struct {
	UUIDBase

	CourseID   string `gorm:"size:36;index;not null" json:"courseId"`
	Title      string `gorm:"size:255;not null" json:"title"`
	OrderIndex int    `gorm:"default:0" json:"orderIndex"`
	StepCount  int    `gorm:"default:0" json:"stepCount"`

	// 旧数据用一个日期字段同时编码"隐藏"和"定时解锁"，读取时经 ResolveVisibility 翻译
	VisibleFrom *time.Time `json:"visibleFrom,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Quiz 可作答的测验，归属于某个课时
// swagger:model Quiz
type Quiz struct {
	UUIDBase

	ParentLessonID string `gorm:"size:36;index" json:"parentLessonId"`
	CourseID       string `gorm:"size:36;index;not null" json:"courseId"`
	Title          string `gorm:"size:255;not null" json:"title"`
	QuestionCount  int    `gorm:"default:0" json:"questionCount"`
	TimeLimitMin   *int   `json:"timeLimitMinutes,omitempty"`
	Difficulty     string `gorm:"size:20;default:'easy'" json:"difficulty"`
	OrderIndex     int    `gorm:"default:0" json:"orderIndex"`

	VisibleFrom *time.Time `json:"visibleFrom,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Question 题目及标准答案，来自内容编辑系统，本服务只读
type Question struct {
	UUIDBase

	QuizID        string `gorm:"size:36;index;not null" json:"quizId"`
	Content       string `gorm:"type:text" json:"content"`
	Points        int    `gorm:"default:1" json:"points"`
	CorrectAnswer string `gorm:"size:255" json:"-"`
	OrderIndex    int    `gorm:"default:0" json:"orderIndex"`
}

func (Question) TableName() string {
	return "questions"
}
