package service

import (
	"context"
	"time"

	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"
)

// NavigatorService 把课程下的测验铺平成有序可遍历的序列，
// 上一个/下一个就是这个序列上的下标运算
type NavigatorService struct {
	ContentRepo    *repository.ContentRepository
	CompletionRepo *repository.CompletionRepository
	Snapshots      SnapshotStore

	now func() time.Time
}

func NewNavigatorService(contentRepo *repository.ContentRepository, completionRepo *repository.CompletionRepository, snapshots SnapshotStore) *NavigatorService {
	return &NavigatorService{
		ContentRepo:    contentRepo,
		CompletionRepo: completionRepo,
		Snapshots:      snapshots,
		now:            time.Now,
	}
}

// NavigationItem 序列里的一项。普通学员看不到被隐藏/未解锁的项，
// 特权用户全部可见，隐藏/锁定以元数据形式给出
type NavigationItem struct {
	QuizID     string           `json:"quizId"`
	LessonID   string           `json:"lessonId"`
	Title      string           `json:"title"`
	Visibility model.Visibility `json:"visibility"`
	Completed  bool             `json:"completed"`
	Resumable  bool             `json:"resumable"`
}

// Sequence 按作者编排顺序铺平 lessons[*].quizzes[*]，再按访问者身份过滤
func (s *NavigatorService) Sequence(ctx context.Context, viewer model.Viewer, courseID string) ([]NavigationItem, error) {
	lessons, err := s.ContentRepo.ListLessons(courseID)
	if err != nil {
		return nil, err
	}

	completed, err := s.CompletionRepo.CompletedQuizIDs(viewer.UserID, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]NavigationItem, 0)

	for _, lesson := range lessons {
		lessonVis := lesson.Visibility(now)
		if !viewer.IsPrivileged && lessonVis.State != model.VisibilityVisible {
			continue
		}

		quizzes, err := s.ContentRepo.ListQuizzesByLesson(lesson.ID)
		if err != nil {
			return nil, err
		}

		for _, quiz := range quizzes {
			vis := quiz.Visibility(now)
			if !viewer.IsPrivileged && vis.State != model.VisibilityVisible {
				continue
			}

			resumable, err := s.Snapshots.Exists(ctx, viewer.UserID, quiz.ID)
			if err != nil {
				resumable = false
			}

			items = append(items, NavigationItem{
				QuizID:     quiz.ID,
				LessonID:   lesson.ID,
				Title:      quiz.Title,
				Visibility: vis,
				Completed:  completed[quiz.ID],
				Resumable:  resumable,
			})
		}
	}

	return items, nil
}

// NavigationResult 当前项的前后邻居和推荐的续作目标。
// 序列边界上 Previous/Next 为空，不回绕
type NavigationResult struct {
	Items    []NavigationItem `json:"items"`
	Current  *NavigationItem  `json:"current,omitempty"`
	Previous *NavigationItem  `json:"previous,omitempty"`
	Next     *NavigationItem  `json:"next,omitempty"`
	Resume   *NavigationItem  `json:"resume,omitempty"`
}

func (s *NavigatorService) Resolve(ctx context.Context, viewer model.Viewer, courseID, currentQuizID string) (*NavigationResult, error) {
	items, err := s.Sequence(ctx, viewer, courseID)
	if err != nil {
		return nil, err
	}

	result := &NavigationResult{Items: items}

	// 优先续上有快照的进行中作答，否则指向第一个未完成项
	for i := range items {
		if items[i].Resumable {
			result.Resume = &items[i]
			break
		}
	}
	if result.Resume == nil {
		for i := range items {
			if !items[i].Completed {
				result.Resume = &items[i]
				break
			}
		}
	}

	if currentQuizID == "" {
		return result, nil
	}

	idx := -1
	for i := range items {
		if items[i].QuizID == currentQuizID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, util.ErrQuizNotFound
	}

	result.Current = &items[idx]
	if idx > 0 {
		result.Previous = &items[idx-1]
	}
	if idx < len(items)-1 {
		result.Next = &items[idx+1]
	}

	return result, nil
}
