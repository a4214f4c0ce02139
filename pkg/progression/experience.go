package progression

import "math"

const (
	// CaseMultiplier scales a 0..100 case score into experience.
	CaseMultiplier = 2.5

	QuizXPPerCorrect = 25
	QuizPerfectBonus = 25

	MinScore = 0
	MaxScore = 100
)

// ClampScore forces a score into 0..100.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// CaseExperience returns the experience earned for a finished case.
// It depends on the score alone.
func CaseExperience(score int) int {
	return int(math.Round(float64(ClampScore(score)) * CaseMultiplier))
}

// QuizExperience returns the experience earned for a graded quiz. Callers
// validate 0 <= correct <= total beforehand; out-of-range input is clamped.
func QuizExperience(correct, total int) int {
	if total <= 0 || correct <= 0 {
		return 0
	}
	if correct > total {
		correct = total
	}
	xp := correct * QuizXPPerCorrect
	if correct == total {
		xp += QuizPerfectBonus
	}
	return xp
}

// RunningMean folds one more score into an average taken over n scores.
// The SQL repositories evaluate the same expression inside their UPDATE.
func RunningMean(avg float64, n int, score int) float64 {
	if n <= 0 {
		return float64(score)
	}
	return (avg*float64(n) + float64(score)) / float64(n+1)
}
