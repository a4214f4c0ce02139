package training

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"medisim/internal/profile"
)

const (
	QuizSize    = 3
	CourseCount = 3
	optionCount = 4
)

var (
	ErrQuizNotFound    = errors.New("quiz not found or expired")
	ErrAlreadyGraded   = errors.New("quiz was already graded")
	ErrAnswerCount     = errors.New("one answer per question is required")
	ErrNoValidQuestion = errors.New("generation returned too few valid questions")
	ErrNoValidModule   = errors.New("generation returned too few valid course modules")
)

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// PublicQuestion is a question as shown before grading.
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type Quiz struct {
	ID        uuid.UUID      `json:"id"`
	LearnerID uuid.UUID      `json:"learnerId"`
	Questions []QuizQuestion `json:"-"`
	Generated bool           `json:"generated"`
	IssuedAt  time.Time      `json:"issuedAt"`
	graded    bool
}

// QuizView is what the learner receives when a quiz is issued.
type QuizView struct {
	ID        uuid.UUID        `json:"id"`
	Questions []PublicQuestion `json:"questions"`
	Generated bool             `json:"generated"`
}

func (q *Quiz) View() QuizView {
	v := QuizView{ID: q.ID, Generated: q.Generated, Questions: make([]PublicQuestion, 0, len(q.Questions))}
	for _, item := range q.Questions {
		v.Questions = append(v.Questions, PublicQuestion{
			Question: item.Question,
			Options:  append([]string(nil), item.Options...),
		})
	}
	return v
}

type QuestionResult struct {
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

type QuizResult struct {
	QuizID         uuid.UUID            `json:"quizId"`
	Results        []QuestionResult     `json:"results"`
	Correct        int                  `json:"correct"`
	Total          int                  `json:"total"`
	ExperienceGain int                  `json:"experienceGain"`
	Profile        *profile.UserProfile `json:"profile"`
}

type CourseModule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	KeyPoint    string `json:"keyPoint"`
}
