package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var staticQuiz = []QuizQuestion{
	{
		Question:     "Which sign is most suggestive of meningeal irritation?",
		Options:      []string{"Neck stiffness on flexion", "Pain on palpation of the calf", "Rebound tenderness", "Pitting oedema"},
		CorrectIndex: 0,
		Explanation:  "Neck stiffness, with Kernig and Brudzinski signs, points to meningeal irritation.",
	},
	{
		Question:     "Pain that starts around the umbilicus and moves to the right iliac fossa suggests:",
		Options:      []string{"Renal colic", "Acute appendicitis", "Acute pancreatitis", "Biliary colic"},
		CorrectIndex: 1,
		Explanation:  "Periumbilical pain migrating to McBurney's point is the classic course of appendicitis.",
	},
	{
		Question:     "Kussmaul breathing is typically seen in:",
		Options:      []string{"Asthma attack", "Pneumothorax", "Metabolic acidosis", "Anxiety"},
		CorrectIndex: 2,
		Explanation:  "Deep, rapid breathing compensates for metabolic acidosis, as in diabetic ketoacidosis.",
	},
}

var staticCourses = []CourseModule{
	{
		Title:       "Cardiac semiology",
		Description: "How chest pain radiates and which features separate cardiac from other causes.",
		KeyPoint:    "Rule out the life-threatening causes first.",
	},
	{
		Title:       "Structuring the interview",
		Description: "Open questions first, then targeted ones. Summarise before moving on.",
		KeyPoint:    "Active listening finds what closed questions miss.",
	},
	{
		Title:       "Red flags in headache",
		Description: "Sudden onset, fever with neck stiffness and neurological signs need urgent work-up.",
		KeyPoint:    "A new worst-ever headache is a red flag until proven otherwise.",
	},
}

func StaticQuiz() []QuizQuestion {
	out := make([]QuizQuestion, len(staticQuiz))
	for i, q := range staticQuiz {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func StaticCourses() []CourseModule {
	out := make([]CourseModule, len(staticCourses))
	copy(out, staticCourses)
	return out
}

func validateQuestion(q QuizQuestion) error {
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Explanation) == "" {
		return fmt.Errorf("question or explanation is empty")
	}
	if len(q.Options) != optionCount {
		return fmt.Errorf("expected %d options, got %d", optionCount, len(q.Options))
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("empty option in %q", q.Question)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= optionCount {
		return fmt.Errorf("correctIndex %d is out of range", q.CorrectIndex)
	}
	return nil
}

// DecodeQuiz parses generated questions, keeping only valid ones, and
// returns at most want of them.
func DecodeQuiz(raw []byte, want int) ([]QuizQuestion, error) {
	var items []QuizQuestion
	if err := strictDecode(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding quiz: %w", err)
	}

	var out []QuizQuestion
	for _, q := range items {
		if validateQuestion(q) != nil {
			continue
		}
		out = append(out, q)
		if len(out) == want {
			break
		}
	}
	if len(out) < want {
		return nil, ErrNoValidQuestion
	}
	return out, nil
}

// DecodeCourses is DecodeQuiz for course modules: exactly want valid
// modules or an error.
func DecodeCourses(raw []byte, want int) ([]CourseModule, error) {
	var items []CourseModule
	if err := strictDecode(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding courses: %w", err)
	}

	var out []CourseModule
	for _, c := range items {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Description) == "" || strings.TrimSpace(c.KeyPoint) == "" {
			continue
		}
		out = append(out, c)
		if len(out) == want {
			break
		}
	}
	if len(out) < want {
		return nil, ErrNoValidModule
	}
	return out, nil
}

func strictDecode(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
