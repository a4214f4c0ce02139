package agent

import (
	"context"

	"medisim/internal/cases"
	"medisim/internal/transcript"
)

// Reply answers the learner's latest message in character. history is the
// conversation before message; system messages are not sent.
func (g *Gemini) Reply(ctx context.Context, c cases.ClinicalCase, history transcript.Transcript, message string) (string, error) {
	req := generateRequest{
		SystemInstruction: system(personaInstruction(c)),
		Contents:          conversation(history.Dialogue(), message),
		GenerationConfig: generationConfig{
			Temperature: 0.7,
			TopP:        0.95,
		},
	}
	return g.generate(ctx, "persona_reply", g.models.Persona, req)
}

func (g *Gemini) Hint(ctx context.Context, tail transcript.Transcript, correctDiagnosis string) (string, error) {
	req := generateRequest{
		SystemInstruction: system(hintInstruction),
		Contents:          []content{userTurn(hintPrompt(tail, correctDiagnosis))},
		GenerationConfig: generationConfig{
			Temperature:     0.4,
			MaxOutputTokens: 120,
		},
	}
	return g.generate(ctx, "hint", g.models.Persona, req)
}

// conversation maps learner turns to "user" and patient turns to "model".
// Consecutive turns of the same role are merged and the exchange always
// opens with a user turn.
func conversation(dialogue transcript.Transcript, message string) []content {
	out := []content{}
	add := func(role, text string) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, part{Text: text})
			return
		}
		out = append(out, content{Role: role, Parts: []part{{Text: text}}})
	}

	for _, m := range dialogue {
		role := "user"
		if m.Role == transcript.RolePatient {
			role = "model"
		}
		if len(out) == 0 && role == "model" {
			add("user", "(The doctor invites you in.)")
		}
		add(role, m.Text)
	}
	add("user", message)
	return out
}
