package util

import "errors"

var (
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuizLocked         = errors.New("quiz not yet unlocked")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptNotRunning  = errors.New("no attempt in progress")
	ErrInsufficientData   = errors.New("not enough cohort data")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidContentType = errors.New("invalid content type")
)
