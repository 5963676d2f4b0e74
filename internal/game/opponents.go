package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RandomTeam as the only team entry asks for a random team from the dex.
const RandomTeam = "random"

// Random team sizes, inclusive.
const (
	MinRandomTeam = 3
	MaxRandomTeam = 6
)

// Opponent is a scripted trainer the player can challenge.
type Opponent struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Difficulty string   `yaml:"difficulty" json:"difficulty"`
	Team       []string `yaml:"team" json:"team"`
	Dialogue   Dialogue `yaml:"dialogue" json:"dialogue"`
	Reward     Reward   `yaml:"reward" json:"reward"`
}

// Dialogue holds what an opponent says around a battle.
type Dialogue struct {
	Intro   string `yaml:"intro" json:"intro"`
	Victory string `yaml:"victory" json:"victory"`
	Defeat  string `yaml:"defeat" json:"defeat"`
}

// Reward is granted to the player for beating an opponent.
type Reward struct {
	Coins int `yaml:"coins" json:"coins"`
	Badge int `yaml:"badge" json:"badge,omitempty"`
}

// Intro is the opponent's challenge line.
func (o Opponent) Intro() string {
	if o.Dialogue.Intro != "" {
		return o.Dialogue.Intro
	}
	return o.Name + " challenges you to a battle!"
}

// Victory is said when the player wins.
func (o Opponent) Victory() string {
	if o.Dialogue.Victory != "" {
		return o.Dialogue.Victory
	}
	return o.Name + ": Well played, you are an excellent trainer!"
}

// Defeat is said when the opponent wins.
func (o Opponent) Defeat() string {
	if o.Dialogue.Defeat != "" {
		return o.Dialogue.Defeat
	}
	return o.Name + ": I won! Keep training!"
}

// IsRandomTeam reports whether the team is drawn from the dex at battle time.
func (o Opponent) IsRandomTeam() bool {
	return len(o.Team) == 1 && Normalize(o.Team[0]) == RandomTeam
}

// Opponents is the read-only table of trainers, keyed by ID.
type Opponents struct {
	byID map[string]Opponent
	ids  []string
}

type opponentsFile struct {
	Opponents []Opponent `yaml:"opponents"`
}

// NewOpponents builds the table. Entries without an ID are skipped.
func NewOpponents(ops ...Opponent) *Opponents {
	t := &Opponents{byID: make(map[string]Opponent, len(ops))}
	for _, o := range ops {
		o.ID = strings.TrimSpace(o.ID)
		if o.ID == "" {
			continue
		}
		if o.Name == "" {
			o.Name = o.ID
		}
		if _, dup := t.byID[o.ID]; !dup {
			t.ids = append(t.ids, o.ID)
		}
		t.byID[o.ID] = o
	}
	sort.Strings(t.ids)
	return t
}

// LoadOpponents loads the trainer table from a YAML file.
func LoadOpponents(path string) (*Opponents, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	return ParseOpponents(b)
}

// ParseOpponents parses trainer YAML.
func ParseOpponents(b []byte) (*Opponents, error) {
	var f opponentsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse opponents: %w", err)
	}
	return NewOpponents(f.Opponents...), nil
}

// Get returns the opponent with the given ID.
func (t *Opponents) Get(id string) (Opponent, bool) {
	if t == nil {
		return Opponent{}, false
	}
	o, ok := t.byID[strings.TrimSpace(id)]
	return o, ok
}

// All returns every opponent ordered by ID.
func (t *Opponents) All() []Opponent {
	if t == nil {
		return nil
	}
	out := make([]Opponent, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.byID[id])
	}
	return out
}

// Random picks any opponent other than exclude. It returns false when the
// table has nothing to offer.
func (t *Opponents) Random(exclude string, rng Rand) (Opponent, bool) {
	if t == nil {
		return Opponent{}, false
	}
	var pool []string
	for _, id := range t.ids {
		if id != exclude {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return Opponent{}, false
	}
	return t.byID[pool[rng.IntN(len(pool))]], true
}

// ByDifficulty picks a random opponent of the given difficulty, or any
// opponent when none matches.
func (t *Opponents) ByDifficulty(difficulty string, rng Rand) (Opponent, bool) {
	if t == nil {
		return Opponent{}, false
	}
	want := Normalize(difficulty)
	var pool []string
	for _, id := range t.ids {
		if Normalize(t.byID[id].Difficulty) == want {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		return t.Random("", rng)
	}
	return t.byID[pool[rng.IntN(len(pool))]], true
}

// Roster spawns the opponent's team. Unknown species are skipped; a random
// team draws MinRandomTeam..MaxRandomTeam distinct species.
func (o Opponent) Roster(dex *Dex, rng Rand) []*Creature {
	names := o.Team
	if o.IsRandomTeam() {
		names = randomSpecies(dex.Names(), MinRandomTeam+rng.IntN(MaxRandomTeam-MinRandomTeam+1), rng)
	}
	team := make([]*Creature, 0, len(names))
	for _, n := range names {
		if c, ok := dex.Spawn(n, rng); ok {
			team = append(team, c)
		}
	}
	return team
}

// randomSpecies samples n distinct names with a partial Fisher-Yates shuffle.
func randomSpecies(names []string, n int, rng Rand) []string {
	n = min(n, len(names))
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(names)-i)
		names[i], names[j] = names[j], names[i]
	}
	return names[:n]
}
