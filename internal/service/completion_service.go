package service

import (
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"
)

// CompletionService "某内容是否完成"的唯一事实来源。
// 完成域按 (user, course) 隔离，同一内容在不同课程下互不影响
type CompletionService struct {
	CompletionRepo *repository.CompletionRepository
	ContentRepo    *repository.ContentRepository
	Notifier       ProgressNotifier
}

func NewCompletionService(completionRepo *repository.CompletionRepository, contentRepo *repository.ContentRepository, notifier ProgressNotifier) *CompletionService {
	return &CompletionService{
		CompletionRepo: completionRepo,
		ContentRepo:    contentRepo,
		Notifier:       notifier,
	}
}

func validateKey(key model.CompletionKey) error {
	if key.ContentID == "" || !key.ContentType.Valid() {
		return util.ErrInvalidContentType
	}
	// step 不是独立实体，必须带父课时和序号才能定位
	if key.ContentType == model.ContentTypeStep && (key.ParentLessonID == "" || key.StepIndex < 0) {
		return util.ErrInvalidContentType
	}
	return nil
}

// MarkComplete 标记完成，重复标记是无操作；只有实际产生变化时才广播
func (s *CompletionService) MarkComplete(viewer model.Viewer, courseID string, key model.CompletionKey) error {
	if err := validateKey(key); err != nil {
		return err
	}

	// step 序号必须落在父课时实际的步骤范围内
	if key.ContentType == model.ContentTypeStep {
		lesson, err := s.ContentRepo.FindLessonByID(key.ParentLessonID)
		if err != nil {
			return err
		}
		if key.StepIndex >= lesson.StepCount {
			return util.ErrInvalidContentType
		}
	}

	created, err := s.CompletionRepo.Upsert(viewer.UserID, courseID, key)
	if err != nil {
		return err
	}
	if created && s.Notifier != nil {
		s.Notifier.ProgressChanged(viewer.UserID, courseID, "completion")
	}
	return nil
}

// UnmarkComplete 取消标记；记录本就不存在时是无操作，不报错
func (s *CompletionService) UnmarkComplete(viewer model.Viewer, courseID string, key model.CompletionKey) error {
	if err := validateKey(key); err != nil {
		return err
	}

	removed, err := s.CompletionRepo.Delete(viewer.UserID, courseID, key)
	if err != nil {
		return err
	}
	if removed && s.Notifier != nil {
		s.Notifier.ProgressChanged(viewer.UserID, courseID, "completion")
	}
	return nil
}

func (s *CompletionService) IsCompleted(viewer model.Viewer, courseID string, key model.CompletionKey) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	return s.CompletionRepo.Exists(viewer.UserID, courseID, key)
}

// CourseProgress 课程维度的进度汇总，分母来自内容结构，分子来自完成记录。
// 某个栏目要不要展示（比如"测验"区）由调用方基于 TotalByType 和权限决定
type CourseProgress struct {
	CourseID        string                      `json:"courseId"`
	TotalByType     map[model.ContentType]int64 `json:"totalByType"`
	CompletedByType map[model.ContentType]int64 `json:"completedByType"`
}

func (s *CompletionService) CourseProgress(viewer model.Viewer, courseID string) (*CourseProgress, error) {
	totals, err := s.ContentRepo.CountCourseContent(courseID)
	if err != nil {
		return nil, err
	}

	completed, err := s.CompletionRepo.CountByType(viewer.UserID, courseID)
	if err != nil {
		return nil, err
	}

	return &CourseProgress{
		CourseID: courseID,
		TotalByType: map[model.ContentType]int64{
			model.ContentTypeLesson: totals.Lessons,
			model.ContentTypeQuiz:   totals.Quizzes,
			model.ContentTypeStep:   totals.Steps,
		},
		CompletedByType: completed,
	}, nil
}
