package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/model"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/util"
	"quiz_extended_backend/pkg/logger"
	"quiz_extended_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// SnapshotStore 自动保存快照的读写接口，生产实现放在Redis
type SnapshotStore interface {
	SnapshotWriter
	Get(ctx context.Context, userID uint, quizID string) (*model.AttemptSnapshot, error)
	Delete(ctx context.Context, userID uint, quizID string) error
	Exists(ctx context.Context, userID uint, quizID string) (bool, error)
}

// QuizLockedError 测验尚未到解锁时间；错误里带上解锁时间，前端直接展示
type QuizLockedError struct {
	UnlockAt time.Time
}

func (e *QuizLockedError) Error() string {
	return util.ErrQuizLocked.Error()
}

func (e *QuizLockedError) Is(target error) bool {
	return target == util.ErrQuizLocked
}

// AttemptService 管理作答生命周期：同一 (user, quiz) 最多一条进行中记录，
// 作答状态驻留内存并经防抖快照持久化，提交幂等
type AttemptService struct {
	ContentRepo   *repository.ContentRepository
	AttemptRepo   *repository.AttemptRepository
	CompletionSvc *CompletionService
	Snapshots     SnapshotStore
	Autosaver     *Autosaver
	Notifier      ProgressNotifier

	mu       sync.Mutex
	sessions map[string]*attemptSession

	scoringMu sync.RWMutex
	scoring   config.ScoringConfig

	now func() time.Time
}

func NewAttemptService(
	contentRepo *repository.ContentRepository,
	attemptRepo *repository.AttemptRepository,
	completionSvc *CompletionService,
	snapshots SnapshotStore,
	autosaver *Autosaver,
	notifier ProgressNotifier,
	scoring config.ScoringConfig,
) *AttemptService {
	return &AttemptService{
		ContentRepo:   contentRepo,
		AttemptRepo:   attemptRepo,
		CompletionSvc: completionSvc,
		Snapshots:     snapshots,
		Autosaver:     autosaver,
		Notifier:      notifier,
		sessions:      make(map[string]*attemptSession),
		scoring:       scoring,
		now:           time.Now,
	}
}

// SetScoringConfig 配置热更新回调，只影响之后的提交
func (s *AttemptService) SetScoringConfig(cfg config.ScoringConfig) {
	s.scoringMu.Lock()
	s.scoring = cfg
	s.scoringMu.Unlock()
}

func (s *AttemptService) scoringConfig() config.ScoringConfig {
	s.scoringMu.RLock()
	defer s.scoringMu.RUnlock()
	return s.scoring
}

// attemptSession 单个进行中作答的内存态。访问由各操作串行化，
// 快照构建单独加锁，防抖落盘协程会并发读
type attemptSession struct {
	mu          sync.Mutex
	attempt     *model.Attempt
	answers     map[string]*model.SnapshotAnswer
	elapsedBase int       // 上次恢复前累计的作答秒数
	resumedAt   time.Time // 本段开始计时的时刻
}

func (sess *attemptSession) elapsed(now time.Time) int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.elapsedBase + int(now.Sub(sess.resumedAt).Seconds())
}

func (sess *attemptSession) setAnswer(questionID string, answer *string, isRisked bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.answers[questionID] = &model.SnapshotAnswer{
		QuestionID:  questionID,
		AnswerGiven: answer,
		IsRisked:    isRisked,
	}
}

// snapshot 构建当前状态的完整快照；答案按题目ID排序，保证字节级稳定
func (sess *attemptSession) snapshot(now time.Time) *model.AttemptSnapshot {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	answers := make([]model.SnapshotAnswer, 0, len(sess.answers))
	for _, a := range sess.answers {
		answers = append(answers, *a)
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].QuestionID < answers[j].QuestionID
	})

	return &model.AttemptSnapshot{
		AttemptID:      sess.attempt.ID,
		UserID:         sess.attempt.UserID,
		QuizID:         sess.attempt.QuizID,
		CourseID:       sess.attempt.CourseID,
		StartedAt:      sess.attempt.StartedAt,
		ElapsedSeconds: sess.elapsedBase + int(now.Sub(sess.resumedAt).Seconds()),
		Answers:        answers,
		SavedAt:        now,
	}
}

// StartAttemptResult 开始/恢复作答后返回给前端的状态
type StartAttemptResult struct {
	AttemptID      string                 `json:"attemptId"`
	QuizID         string                 `json:"quizId"`
	CourseID       string                 `json:"courseId"`
	Resumed        bool                   `json:"resumed"`
	StartedAt      time.Time              `json:"startedAt"`
	ElapsedSeconds int                    `json:"elapsedSeconds"`
	TimeLimitMin   *int                   `json:"timeLimitMinutes,omitempty"`
	QuestionCount  int                    `json:"questionCount"`
	Answers        []model.SnapshotAnswer `json:"answers"`
}

// Start 开始或恢复作答。存在进行中的记录时总是恢复，绝不产生第二条；
// 不可见的测验对普通学员视同不存在，未解锁的返回带解锁时间的错误
func (s *AttemptService) Start(ctx context.Context, viewer model.Viewer, quizID string) (*StartAttemptResult, error) {
	quiz, err := s.ContentRepo.FindQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !viewer.IsPrivileged {
		switch vis := quiz.Visibility(now); vis.State {
		case model.VisibilityHidden:
			return nil, util.ErrQuizNotFound
		case model.VisibilityLocked:
			return nil, &QuizLockedError{UnlockAt: *vis.UnlockAt}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := AutosaveKey(viewer.UserID, quizID)
	if sess, ok := s.sessions[key]; ok {
		return s.startResult(quiz, sess, true, now), nil
	}

	attempt, err := s.AttemptRepo.FindInProgress(viewer.UserID, quizID)
	if err != nil {
		return nil, err
	}

	snap, err := s.Snapshots.Get(ctx, viewer.UserID, quizID)
	if err != nil {
		// 快照读不出来按全新开始处理，已有进行中记录仍会被复用
		if logger.Log != nil {
			logger.Log.Warn("autosave snapshot read failed",
				zap.Uint("userId", viewer.UserID), zap.String("quizId", quizID), zap.Error(err))
		}
		snap = nil
	}

	resumed := attempt != nil
	if attempt == nil {
		if snap != nil {
			// 没有进行中记录的孤儿快照，清掉
			_ = s.Snapshots.Delete(ctx, viewer.UserID, quizID)
			snap = nil
		}
		attempt = &model.Attempt{
			UserID:    viewer.UserID,
			QuizID:    quizID,
			CourseID:  quiz.CourseID,
			Status:    model.AttemptStatusInProgress,
			StartedAt: now,
		}
		if err := s.AttemptRepo.Create(attempt); err != nil {
			return nil, err
		}
	}

	sess := &attemptSession{
		attempt:   attempt,
		answers:   make(map[string]*model.SnapshotAnswer),
		resumedAt: now,
	}
	if snap != nil && snap.AttemptID == attempt.ID {
		sess.elapsedBase = snap.ElapsedSeconds
		for i := range snap.Answers {
			a := snap.Answers[i]
			sess.answers[a.QuestionID] = &a
		}
	}

	s.sessions[key] = sess
	return s.startResult(quiz, sess, resumed, now), nil
}

func (s *AttemptService) startResult(quiz *model.Quiz, sess *attemptSession, resumed bool, now time.Time) *StartAttemptResult {
	snap := sess.snapshot(now)
	return &StartAttemptResult{
		AttemptID:      sess.attempt.ID,
		QuizID:         sess.attempt.QuizID,
		CourseID:       sess.attempt.CourseID,
		Resumed:        resumed,
		StartedAt:      sess.attempt.StartedAt,
		ElapsedSeconds: snap.ElapsedSeconds,
		TimeLimitMin:   quiz.TimeLimitMin,
		QuestionCount:  quiz.QuestionCount,
		Answers:        snap.Answers,
	}
}

// RecordAnswer 记录单题作答并调度防抖自动保存；不等待持久化完成
func (s *AttemptService) RecordAnswer(viewer model.Viewer, quizID, questionID string, answer *string, isRisked bool) error {
	s.mu.Lock()
	sess, ok := s.sessions[AutosaveKey(viewer.UserID, quizID)]
	s.mu.Unlock()
	if !ok {
		return util.ErrAttemptNotRunning
	}

	question, err := s.ContentRepo.FindQuestionByID(questionID)
	if err != nil {
		return err
	}
	if question.QuizID != quizID {
		return util.ErrQuestionNotFound
	}

	sess.setAnswer(questionID, answer, isRisked)

	key := AutosaveKey(viewer.UserID, quizID)
	s.Autosaver.Schedule(key, func() *model.AttemptSnapshot {
		return sess.snapshot(s.now())
	})
	return nil
}

// Submit 冻结答案、判分、落盘并清理快照。重复提交幂等：
// 已提交过的直接返回既有成绩，不重算也不报错
func (s *AttemptService) Submit(ctx context.Context, viewer model.Viewer, quizID string) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := AutosaveKey(viewer.UserID, quizID)
	sess, ok := s.sessions[key]
	if !ok {
		// 会话不在内存（进程重启或换实例），从持久层重建
		attempt, err := s.AttemptRepo.FindInProgress(viewer.UserID, quizID)
		if err != nil {
			return nil, err
		}
		if attempt == nil {
			// 网络重试打到已完成的提交上，按幂等约定返回既有成绩
			submitted, err := s.AttemptRepo.FindLatestSubmitted(viewer.UserID, quizID)
			if err != nil {
				return nil, err
			}
			if submitted != nil {
				monitoring.AttemptSubmissions.WithLabelValues("duplicate").Inc()
				return submitted, nil
			}
			return nil, util.ErrAttemptNotRunning
		}

		sess = &attemptSession{
			attempt:   attempt,
			answers:   make(map[string]*model.SnapshotAnswer),
			resumedAt: s.now(),
		}
		snap, err := s.Snapshots.Get(ctx, viewer.UserID, quizID)
		if err != nil {
			// 快照读不出来不能按空卷判零分，报错让前端重试，答案仍在存储里
			monitoring.AttemptSubmissions.WithLabelValues("error").Inc()
			return nil, err
		}
		if snap != nil && snap.AttemptID == attempt.ID {
			sess.elapsedBase = snap.ElapsedSeconds
			for i := range snap.Answers {
				a := snap.Answers[i]
				sess.answers[a.QuestionID] = &a
			}
		}
	}

	questions, err := s.ContentRepo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	graded := make([]GradedAnswer, 0, len(questions))
	rows := make([]model.AttemptAnswer, 0, len(questions))

	sess.mu.Lock()
	for _, q := range questions {
		ans := sess.answers[q.ID]
		answered := ans != nil && ans.AnswerGiven != nil
		isRisked := ans != nil && ans.IsRisked

		correct := false
		if answered {
			correct = gradeAnswer(*ans.AnswerGiven, q.CorrectAnswer)
		}

		graded = append(graded, GradedAnswer{
			QuestionID: q.ID,
			Points:     q.Points,
			Answered:   answered,
			Correct:    correct,
			Risked:     isRisked,
		})

		row := model.AttemptAnswer{
			AttemptID:  sess.attempt.ID,
			QuestionID: q.ID,
			IsRisked:   isRisked,
		}
		if answered {
			given := *ans.AnswerGiven
			isCorrect := correct
			row.AnswerGiven = &given
			row.IsCorrect = &isCorrect
		}
		rows = append(rows, row)
	}
	sess.mu.Unlock()

	result := ComputeScore(graded, s.scoringConfig())

	attempt := sess.attempt
	attempt.Status = model.AttemptStatusSubmitted
	attempt.SubmittedAt = &now
	attempt.DurationSeconds = sess.elapsed(now)
	attempt.ApplyResult(result)

	if err := s.AttemptRepo.Submit(attempt, rows); err != nil {
		// 提交失败要让前端可重试，会话和快照原样保留
		attempt.Status = model.AttemptStatusInProgress
		attempt.SubmittedAt = nil
		monitoring.AttemptSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}

	s.Autosaver.Cancel(key)
	if err := s.Snapshots.Delete(ctx, viewer.UserID, quizID); err != nil && logger.Log != nil {
		logger.Log.Warn("stale autosave snapshot not deleted",
			zap.Uint("userId", viewer.UserID), zap.String("quizId", quizID), zap.Error(err))
	}
	delete(s.sessions, key)

	// 提交即视为完成该测验
	quiz, err := s.ContentRepo.FindQuizByID(quizID)
	if err == nil {
		_ = s.CompletionSvc.MarkComplete(viewer, quiz.CourseID, model.CompletionKey{
			ContentID:      quizID,
			ContentType:    model.ContentTypeQuiz,
			ParentLessonID: quiz.ParentLessonID,
		})
	}

	if s.Notifier != nil {
		s.Notifier.ProgressChanged(viewer.UserID, attempt.CourseID, "submit")
	}
	monitoring.AttemptSubmissions.WithLabelValues("submitted").Inc()
	return attempt, nil
}

// Exit 中途离开：立刻写出最终快照并释放内存会话，之后 Start 可无损恢复
func (s *AttemptService) Exit(ctx context.Context, viewer model.Viewer, quizID string) error {
	s.mu.Lock()
	key := AutosaveKey(viewer.UserID, quizID)
	sess, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	// 最终快照也走自动保存的重试通道，瞬时故障不丢答案也不打断退出
	s.Autosaver.Schedule(key, func() *model.AttemptSnapshot {
		return sess.snapshot(s.now())
	})
	s.Autosaver.Flush(key)
	return nil
}

// Abandon 学员选择"重新开始"：丢弃快照和进行中的记录
func (s *AttemptService) Abandon(ctx context.Context, viewer model.Viewer, quizID string) error {
	s.mu.Lock()
	key := AutosaveKey(viewer.UserID, quizID)
	delete(s.sessions, key)
	s.mu.Unlock()

	s.Autosaver.Cancel(key)
	if err := s.Snapshots.Delete(ctx, viewer.UserID, quizID); err != nil {
		return err
	}
	return s.AttemptRepo.DeleteInProgress(viewer.UserID, quizID)
}

// ReviewResult 查看历史作答的只读视图
type ReviewResult struct {
	Attempt *model.Attempt        `json:"attempt"`
	Result  model.ScoreResult     `json:"result"`
	Answers []model.AttemptAnswer `json:"answers"`
}

// Review 打开一条已提交的历史记录，只读，不经过进行中状态
func (s *AttemptService) Review(viewer model.Viewer, attemptID string) (*ReviewResult, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != viewer.UserID && !viewer.IsPrivileged {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptStatusSubmitted {
		return nil, util.ErrAttemptNotFound
	}

	answers, err := s.AttemptRepo.GetAnswers(attemptID)
	if err != nil {
		return nil, err
	}

	return &ReviewResult{
		Attempt: attempt,
		Result:  attempt.Result(),
		Answers: answers,
	}, nil
}

// Shutdown 停机前把挂起的自动保存全部落盘
func (s *AttemptService) Shutdown() {
	s.Autosaver.FlushAll()
}

// gradeAnswer 和标准答案比对，忽略首尾空格和大小写
func gradeAnswer(given, correct string) bool {
	return strings.TrimSpace(strings.ToLower(given)) == strings.TrimSpace(strings.ToLower(correct))
}
