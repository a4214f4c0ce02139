// Package progression holds the experience arithmetic shared by case
// completion and quiz rewards. Everything here is a pure function.
package progression

// Rank is a coarse progression tier derived from cumulative experience.
type Rank struct {
	Name   string `json:"name"`
	Level  int    `json:"level"`
	MinXP  int    `json:"minXp"`
	NextAt int    `json:"nextAt"` // 0 at the top rank
}

type step struct {
	name  string
	minXP int
}

// ladder must stay sorted by minXP.
var ladder = []step{
	{"Medical Student", 0},
	{"Extern", 500},
	{"Intern", 1500},
	{"Resident", 3500},
	{"Chief Resident", 7000},
	{"Attending", 12000},
}

// RankFor maps experience points onto the rank ladder. Negative input is
// treated as zero.
func RankFor(xp int) Rank {
	idx := 0
	for i, s := range ladder {
		if xp >= s.minXP {
			idx = i
		}
	}

	r := Rank{
		Name:  ladder[idx].name,
		Level: idx + 1,
		MinXP: ladder[idx].minXP,
	}
	if idx+1 < len(ladder) {
		r.NextAt = ladder[idx+1].minXP
	}
	return r
}

// Ranks returns a copy of the full ladder, lowest first.
func Ranks() []Rank {
	out := make([]Rank, 0, len(ladder))
	for _, s := range ladder {
		out = append(out, RankFor(s.minXP))
	}
	return out
}

// IsTop reports whether r is the last rung of the ladder.
func (r Rank) IsTop() bool {
	return r.NextAt == 0
}
