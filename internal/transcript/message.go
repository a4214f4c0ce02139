package transcript

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleLearner Role = "learner"
	RolePatient Role = "patient"
	RoleSystem  Role = "system"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RolePatient, RoleSystem:
		return true
	}
	return false
}

// Dialogue reports whether r is a learner/patient turn.
func (r Role) Dialogue() bool {
	return r == RoleLearner || r == RolePatient
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// Transcript is the ordered message history of a session. It is
// append-only; callers never rewrite earlier entries.
type Transcript []Message

func (t Transcript) Append(m Message) Transcript {
	return append(t, m)
}

// Dialogue returns the learner/patient turns only. Hints and system
// notices are dropped.
func (t Transcript) Dialogue() Transcript {
	out := make(Transcript, 0, len(t))
	for _, m := range t {
		if m.Role.Dialogue() {
			out = append(out, m)
		}
	}
	return out
}

// Tail returns the last n dialogue turns.
func (t Transcript) Tail(n int) Transcript {
	d := t.Dialogue()
	if n <= 0 || len(d) <= n {
		return d
	}
	return d[len(d)-n:]
}

// Clone returns a copy that is safe to hand to another goroutine.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Format renders the dialogue turns as "Doctor: ..." / "Patient: ..." lines
// for prompts.
func (t Transcript) Format() string {
	var b strings.Builder
	for _, m := range t.Dialogue() {
		label := "Patient"
		if m.Role == RoleLearner {
			label = "Doctor"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
