package model

import "time"

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
)

// Attempt 一次作答记录，同一 (user, quiz) 同时最多存在一条 in_progress
// swagger:model Attempt
type Attempt struct {
	UUIDBase

	UserID          uint       `gorm:"index:idx_attempt_user_quiz;type:bigint unsigned" json:"userId"`
	QuizID          string     `gorm:"size:36;index:idx_attempt_user_quiz" json:"quizId"`
	CourseID        string     `gorm:"size:36;index" json:"courseId"`
	Status          string     `gorm:"size:20;default:'in_progress';index" json:"status"`
	StartedAt       time.Time  `json:"startedAt"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	DurationSeconds int        `gorm:"default:0" json:"durationSeconds"`

	// 提交时由计分器一次性写入
	Score               float64 `gorm:"default:0" json:"score"`
	ScoreWithRisk       float64 `gorm:"default:0" json:"scoreWithRisk"`
	CorrectCount        int     `gorm:"default:0" json:"correctCount"`
	IncorrectCount      int     `gorm:"default:0" json:"incorrectCount"`
	UnansweredCount     int     `gorm:"default:0" json:"unansweredCount"`
	CorrectWithRisk     int     `gorm:"default:0" json:"correctWithRisk"`
	CorrectWithoutRisk  int     `gorm:"default:0" json:"correctWithoutRisk"`
	IncorrectWithRisk   int     `gorm:"default:0" json:"incorrectWithRisk"`
	IncorrectWithoutRisk int    `gorm:"default:0" json:"incorrectWithoutRisk"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// ScoreResult 从 Attempt 上派生的成绩视图，提交后不可变
// swagger:model ScoreResult
type ScoreResult struct {
	Score                float64 `json:"score"`
	ScoreWithRisk        float64 `json:"scoreWithRisk"`
	CorrectCount         int     `json:"correctCount"`
	IncorrectCount       int     `json:"incorrectCount"`
	UnansweredCount      int     `json:"unansweredCount"`
	CorrectWithRisk      int     `json:"correctWithRisk"`
	CorrectWithoutRisk   int     `json:"correctWithoutRisk"`
	IncorrectWithRisk    int     `json:"incorrectWithRisk"`
	IncorrectWithoutRisk int     `json:"incorrectWithoutRisk"`
}

func (a *Attempt) Result() ScoreResult {
	return ScoreResult{
		Score:                a.Score,
		ScoreWithRisk:        a.ScoreWithRisk,
		CorrectCount:         a.CorrectCount,
		IncorrectCount:       a.IncorrectCount,
		UnansweredCount:      a.UnansweredCount,
		CorrectWithRisk:      a.CorrectWithRisk,
		CorrectWithoutRisk:   a.CorrectWithoutRisk,
		IncorrectWithRisk:    a.IncorrectWithRisk,
		IncorrectWithoutRisk: a.IncorrectWithoutRisk,
	}
}

func (a *Attempt) ApplyResult(r ScoreResult) {
	a.Score = r.Score
	a.ScoreWithRisk = r.ScoreWithRisk
	a.CorrectCount = r.CorrectCount
	a.IncorrectCount = r.IncorrectCount
	a.UnansweredCount = r.UnansweredCount
	a.CorrectWithRisk = r.CorrectWithRisk
	a.CorrectWithoutRisk = r.CorrectWithoutRisk
	a.IncorrectWithRisk = r.IncorrectWithRisk
	a.IncorrectWithoutRisk = r.IncorrectWithoutRisk
}

// AttemptAnswer 每题一条作答明细；AnswerGiven 为 nil 表示未作答，
// IsCorrect 在判分前为 nil
type AttemptAnswer struct {
	BaseModel

	AttemptID   string  `gorm:"size:36;index;not null" json:"attemptId"`
	QuestionID  string  `gorm:"size:36;index;not null" json:"questionId"`
	AnswerGiven *string `gorm:"size:255" json:"answerGiven"`
	IsRisked    bool    `gorm:"default:false" json:"isRisked"`
	IsCorrect   *bool   `json:"isCorrect"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// SnapshotAnswer 自动保存快照里的单题状态
type SnapshotAnswer struct {
	QuestionID  string  `json:"questionId"`
	AnswerGiven *string `json:"answerGiven"`
	IsRisked    bool    `json:"isRisked"`
}

// AttemptSnapshot 进行中作答的持久化快照，整体覆盖写（last-write-wins），
// 页面刷新或中途退出后据此恢复
type AttemptSnapshot struct {
	AttemptID      string           `json:"attemptId"`
	UserID         uint             `json:"userId"`
	QuizID         string           `json:"quizId"`
	CourseID       string           `json:"courseId"`
	StartedAt      time.Time        `json:"startedAt"`
	ElapsedSeconds int              `json:"elapsedSeconds"`
	Answers        []SnapshotAnswer `json:"answers"`
	SavedAt        time.Time        `json:"savedAt"`
}
