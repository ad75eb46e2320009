package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVisibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil date is visible", func(t *testing.T) {
		vis := ResolveVisibility(nil, now)
		assert.Equal(t, VisibilityVisible, vis.State)
		assert.Nil(t, vis.UnlockAt)
	})

	t.Run("past date is visible", func(t *testing.T) {
		past := now.AddDate(0, -1, 0)
		vis := ResolveVisibility(&past, now)
		assert.Equal(t, VisibilityVisible, vis.State)
	})

	t.Run("future date is locked with unlock time", func(t *testing.T) {
		future := now.AddDate(0, 0, 7)
		vis := ResolveVisibility(&future, now)
		assert.Equal(t, VisibilityLocked, vis.State)
		require.NotNil(t, vis.UnlockAt)
		assert.True(t, vis.UnlockAt.Equal(future))
	})

	t.Run("sentinel year means hidden, not locked", func(t *testing.T) {
		sentinel := HiddenSentinel()
		vis := ResolveVisibility(&sentinel, now)
		assert.Equal(t, VisibilityHidden, vis.State)
		assert.Nil(t, vis.UnlockAt)
	})

	t.Run("any year at or past sentinel is hidden", func(t *testing.T) {
		far := time.Date(10500, 1, 1, 0, 0, 0, 0, time.UTC)
		vis := ResolveVisibility(&far, now)
		assert.Equal(t, VisibilityHidden, vis.State)
	})

	t.Run("boundary moment is visible", func(t *testing.T) {
		exact := now
		vis := ResolveVisibility(&exact, now)
		assert.Equal(t, VisibilityVisible, vis.State)
	})
}

func TestCompletionKeyNormalized(t *testing.T) {
	key := CompletionKey{ContentID: "c1", ContentType: ContentTypeQuiz, StepIndex: 3}
	assert.Equal(t, NoStepIndex, key.Normalized().StepIndex)

	step := CompletionKey{ContentID: "l1", ContentType: ContentTypeStep, ParentLessonID: "l1", StepIndex: 3}
	assert.Equal(t, 3, step.Normalized().StepIndex)
}
