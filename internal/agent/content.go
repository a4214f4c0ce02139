package agent

import (
	"context"

	"medisim/internal/cases"
)

func (g *Gemini) GenerateCases(ctx context.Context, difficulty cases.Difficulty, count int) ([]byte, error) {
	return g.generateJSON(ctx, "generate_cases", casesPrompt(difficulty, count), casesSchema, 0.9)
}

func (g *Gemini) GenerateQuiz(ctx context.Context, count int) ([]byte, error) {
	return g.generateJSON(ctx, "generate_quiz", quizPrompt(count), quizSchema, 0.8)
}

func (g *Gemini) GenerateCourses(ctx context.Context, count int) ([]byte, error) {
	return g.generateJSON(ctx, "generate_courses", coursesPrompt(count), coursesSchema, 0.7)
}

func (g *Gemini) generateJSON(ctx context.Context, operation, prompt string, s *schema, temperature float64) ([]byte, error) {
	text, err := g.generate(ctx, operation, g.models.Content, generateRequest{
		SystemInstruction: system(contentInstruction),
		Contents:          []content{userTurn(prompt)},
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			ResponseMimeType: "application/json",
			ResponseSchema:   s,
		},
	})
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
