package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTop20Cutoff(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, top20Cutoff(nil))
	})

	t.Run("five users, one seat", func(t *testing.T) {
		scores := []float64{40, 90, 70, 60, 80}
		assert.Equal(t, 90.0, top20Cutoff(scores))
	})

	t.Run("ten users, two seats", func(t *testing.T) {
		scores := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
		assert.Equal(t, 90.0, top20Cutoff(scores))
	})

	t.Run("headcount rounds up", func(t *testing.T) {
		// 6人的前20%向上取整是2个席位
		scores := []float64{10, 20, 30, 40, 50, 60}
		assert.Equal(t, 50.0, top20Cutoff(scores))
	})

	t.Run("single user", func(t *testing.T) {
		assert.Equal(t, 73.0, top20Cutoff([]float64{73}))
	})

	t.Run("input not mutated", func(t *testing.T) {
		scores := []float64{30, 10, 20}
		top20Cutoff(scores)
		assert.Equal(t, []float64{30, 10, 20}, scores)
	})
}
