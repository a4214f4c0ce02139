package agent

import (
	"fmt"
	"strings"

	"medisim/internal/cases"
	"medisim/internal/feedback"
	"medisim/internal/transcript"
)

func personaInstruction(c cases.ClinicalCase) string {
	p := c.PatientProfile
	return fmt.Sprintf(`You are a patient consulting a doctor. Stay in character for the whole conversation.
Your name is %s, you are %d, %s, and you work as %s.
Your main complaint: %s

Your situation, known only to you:
%s

Rules:
- Speak like a layperson. Never use medical jargon and never name a diagnosis, even if asked directly.
- Only answer what the doctor asks. Reveal details gradually, as a real patient would.
- Keep answers short: one to three sentences.
- If the doctor examines you, describe what you feel, not what they would find.`,
		p.Name, p.Age, strings.ToLower(p.Gender), strings.ToLower(p.Occupation), p.ChiefComplaint, c.HiddenScenario)
}

const hintInstruction = `You are a clinical teacher supervising a medical student during a patient interview.
Give ONE short sentence that nudges the student towards the next useful question or examination.
Never state, spell out or allude by name to the diagnosis.`

func hintPrompt(tail transcript.Transcript, correctDiagnosis string) string {
	return fmt.Sprintf(`Diagnosis the student should reach (do not reveal it): %s

Latest exchanges:
%s

Your one-sentence hint:`, correctDiagnosis, tail.Format())
}

const tutorInstruction = `You are a senior professor of medicine grading a student's patient interview.
Be rigorous but constructive. Score from 0 to 100: the final diagnosis weighs about half, the quality
and completeness of the history taking the other half. Answer only with JSON matching the schema.`

func evaluationPrompt(req feedback.EvaluationRequest) string {
	return fmt.Sprintf(`Clinical case: %s (%s)
Expected diagnosis: %s

Consultation transcript:
%s

Student's diagnosis: %s
Student's reasoning: %s

Second opinion from a clinical expert model: %s`,
		req.CaseTitle, req.Specialty, req.CorrectDiagnosis,
		req.Dialogue.Format(),
		req.Submission.MainDiagnosis, req.Submission.Reasoning,
		req.ExpertOpinion)
}

const contentInstruction = `You write teaching material for medical students. Answer only with JSON matching the schema.`

func casesPrompt(d cases.Difficulty, count int) string {
	return fmt.Sprintf(`Create %d distinct clinical cases of %s difficulty for history-taking practice.
Each case needs realistic vitals, a publicDescription the student may read, and a hiddenScenario written
in the second person ("You are ...") that the simulated patient will follow, with at least three details
the student has to ask for. correctDiagnosis must be a single precise diagnosis, not a list of alternatives.
Every case must have difficulty "%s".`, count, strings.ToLower(string(d)), d)
}

func quizPrompt(count int) string {
	return fmt.Sprintf(`Create a quiz of %d multiple-choice questions on clinical semiology.
Each question has exactly four options, one correct answer given by its zero-based correctIndex,
and a one or two sentence explanation.`, count)
}

func coursesPrompt(count int) string {
	return fmt.Sprintf(`Propose %d short course modules for a medical student improving their clinical interview.
Each module has a title, a two-sentence description and a single keyPoint to remember.`, count)
}
