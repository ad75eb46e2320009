package model

import "time"

type ContentType string

const (
	ContentTypeLesson   ContentType = "lesson"
	ContentTypeQuiz     ContentType = "quiz"
	ContentTypeVideo    ContentType = "video"
	ContentTypeDocument ContentType = "document"
	ContentTypeText     ContentType = "text"
	ContentTypeImage    ContentType = "image"
	ContentTypeStep     ContentType = "step"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeLesson, ContentTypeQuiz, ContentTypeVideo,
		ContentTypeDocument, ContentTypeText, ContentTypeImage, ContentTypeStep:
		return true
	}
	return false
}

// NoStepIndex 非 step 类型记录的 step_index 占位值，保证复合唯一索引可用
const NoStepIndex = -1

// CompletionKey 完成记录的复合身份。课时里的 step 不是独立实体，
// 必须带上 parentLessonId + stepIndex 才能定位，相等性定义在完整元组上
type CompletionKey struct {
	ContentID      string      `json:"contentId"`
	ContentType    ContentType `json:"contentType"`
	ParentLessonID string      `json:"parentLessonId,omitempty"`
	StepIndex      int         `json:"stepIndex"`
}

// Normalized 把可选字段折算成存储层的占位值
func (k CompletionKey) Normalized() CompletionKey {
	if k.ContentType != ContentTypeStep {
		k.StepIndex = NoStepIndex
	}
	return k
}

// Completion 某用户在某课程下完成了某内容。完成域按 (user, course) 隔离：
// 同一个 contentId 被克隆到别的课程后是另一条记录
type Completion struct {
	BaseModel

	UserID         uint        `gorm:"uniqueIndex:idx_completion_key;type:bigint unsigned" json:"userId"`
	CourseID       string      `gorm:"size:36;uniqueIndex:idx_completion_key" json:"courseId"`
	ContentID      string      `gorm:"size:36;uniqueIndex:idx_completion_key" json:"contentId"`
	ContentType    ContentType `gorm:"size:20;uniqueIndex:idx_completion_key" json:"contentType"`
	ParentLessonID string      `gorm:"size:36;uniqueIndex:idx_completion_key;default:''" json:"parentLessonId,omitempty"`
	StepIndex      int         `gorm:"uniqueIndex:idx_completion_key;default:-1" json:"stepIndex"`
	CompletedAt    time.Time   `json:"completedAt"`
}

func (Completion) TableName() string {
	return "completions"
}

func (c *Completion) Key() CompletionKey {
	return CompletionKey{
		ContentID:      c.ContentID,
		ContentType:    c.ContentType,
		ParentLessonID: c.ParentLessonID,
		StepIndex:      c.StepIndex,
	}
}

// FavoriteQuestion 收藏的题目，独立开关，和作答生命周期无关
type FavoriteQuestion struct {
	BaseModel

	UserID     uint   `gorm:"uniqueIndex:idx_fav_user_question;type:bigint unsigned" json:"userId"`
	QuestionID string `gorm:"size:36;uniqueIndex:idx_fav_user_question" json:"questionId"`
}

func (FavoriteQuestion) TableName() string {
	return "favorite_questions"
}
