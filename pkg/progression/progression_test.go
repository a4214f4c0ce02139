package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankFor(t *testing.T) {
	tests := []struct {
		xp     int
		name   string
		level  int
		nextAt int
	}{
		{-10, "Medical Student", 1, 500},
		{0, "Medical Student", 1, 500},
		{499, "Medical Student", 1, 500},
		{500, "Extern", 2, 1500},
		{3499, "Intern", 3, 3500},
		{3500, "Resident", 4, 7000},
		{12000, "Attending", 6, 0},
		{1 << 30, "Attending", 6, 0},
	}

	for _, tt := range tests {
		r := RankFor(tt.xp)
		assert.Equal(t, tt.name, r.Name, "xp=%d", tt.xp)
		assert.Equal(t, tt.level, r.Level, "xp=%d", tt.xp)
		assert.Equal(t, tt.nextAt, r.NextAt, "xp=%d", tt.xp)
	}
}

func TestRankForIsMonotonic(t *testing.T) {
	prev := RankFor(0).Level
	for xp := 0; xp <= 15000; xp += 7 {
		lvl := RankFor(xp).Level
		assert.GreaterOrEqual(t, lvl, prev, "xp=%d", xp)
		prev = lvl
	}
	assert.True(t, RankFor(20000).IsTop())
	assert.Len(t, Ranks(), 6)
}

func TestCaseExperience(t *testing.T) {
	assert.Equal(t, 0, CaseExperience(0))
	assert.Equal(t, 88, CaseExperience(35))
	assert.Equal(t, 125, CaseExperience(50))
	assert.Equal(t, 250, CaseExperience(100))
	assert.Equal(t, 250, CaseExperience(140))
	assert.Equal(t, 0, CaseExperience(-5))
}

func TestQuizExperience(t *testing.T) {
	assert.Equal(t, 0, QuizExperience(0, 3))
	assert.Equal(t, 50, QuizExperience(2, 3))
	assert.Equal(t, 100, QuizExperience(3, 3))
	assert.Equal(t, 0, QuizExperience(1, 0))
}

func TestRunningMeanOrderIndependent(t *testing.T) {
	apply := func(scores []int) float64 {
		avg, n := 0.0, 0
		for _, s := range scores {
			avg = RunningMean(avg, n, s)
			n++
		}
		return avg
	}

	a := apply([]int{80, 20, 65, 100, 0})
	b := apply([]int{0, 100, 65, 20, 80})
	assert.InDelta(t, 53.0, a, 1e-9)
	assert.InDelta(t, a, b, 1e-9)
}
