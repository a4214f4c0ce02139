package agent

import (
	"context"

	"medisim/internal/feedback"
)

// Evaluate asks the tutor model for a JSON verdict. The payload is returned
// as is; the synthesizer enforces the schema.
func (g *Gemini) Evaluate(ctx context.Context, req feedback.EvaluationRequest) ([]byte, error) {
	text, err := g.generate(ctx, "evaluate", g.models.Tutor, generateRequest{
		SystemInstruction: system(tutorInstruction),
		Contents:          []content{userTurn(evaluationPrompt(req))},
		GenerationConfig: generationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
			ResponseSchema:   verdictSchema,
		},
	})
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
