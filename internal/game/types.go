package game

import "fmt"

// Side identifies one of the two teams in a battle.
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideOpponent:
		return "opponent"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player":
		*s = SidePlayer
	case "opponent":
		*s = SideOpponent
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// Stats represents a creature's core attributes.
type Stats struct {
	HP             int `yaml:"hp" json:"hp"`
	Attack         int `yaml:"attack" json:"attack"`
	Defense        int `yaml:"defense" json:"defense"`
	SpecialAttack  int `yaml:"special_attack" json:"special_attack"`
	SpecialDefense int `yaml:"special_defense" json:"special_defense"`
	Speed          int `yaml:"speed" json:"speed"`
}

// Add returns the per-stat sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		HP:             s.HP + o.HP,
		Attack:         s.Attack + o.Attack,
		Defense:        s.Defense + o.Defense,
		SpecialAttack:  s.SpecialAttack + o.SpecialAttack,
		SpecialDefense: s.SpecialDefense + o.SpecialDefense,
		Speed:          s.Speed + o.Speed,
	}
}

// Sub returns the per-stat difference s - o.
func (s Stats) Sub(o Stats) Stats {
	return Stats{
		HP:             s.HP - o.HP,
		Attack:         s.Attack - o.Attack,
		Defense:        s.Defense - o.Defense,
		SpecialAttack:  s.SpecialAttack - o.SpecialAttack,
		SpecialDefense: s.SpecialDefense - o.SpecialDefense,
		Speed:          s.Speed - o.Speed,
	}
}

func (s Stats) clamp(lo, hi int) Stats {
	c := func(v int) int {
		if v < lo {
			return lo
		}
		if hi >= lo && v > hi {
			return hi
		}
		return v
	}
	return Stats{
		HP:             c(s.HP),
		Attack:         c(s.Attack),
		Defense:        c(s.Defense),
		SpecialAttack:  c(s.SpecialAttack),
		SpecialDefense: c(s.SpecialDefense),
		Speed:          c(s.Speed),
	}
}

// Creature is one captured or opponent creature as it exists inside a
// battle. It is never mutated once a battle starts; remaining HP is tracked
// by State.
type Creature struct {
	Name      string   `json:"name"`
	Types     []string `json:"types"`
	BaseStats Stats    `json:"base_stats"`
	IVs       Stats    `json:"ivs"`
	Stats     Stats    `json:"stats"`
	Moves     []string `json:"moves"`
	Artwork   string   `json:"artwork,omitempty"`
}

// Knows reports whether move is one of the creature's known moves.
func (c *Creature) Knows(move string) bool {
	n := Normalize(move)
	for _, m := range c.Moves {
		if Normalize(m) == n {
			return true
		}
	}
	return false
}

// HasType reports whether t is one of the creature's elemental types.
func (c *Creature) HasType(t string) bool {
	ct := CanonicalType(t)
	for _, own := range c.Types {
		if CanonicalType(own) == ct {
			return true
		}
	}
	return false
}

// Category is a move's damage class.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategorySpecial  Category = "special"
	CategoryUnknown  Category = ""
)

// Move is one entry of the move catalog.
type Move struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`
	Power    int      `yaml:"power" json:"power"`
	Category Category `yaml:"category" json:"category"`
}

// ActionKind tags a TurnAction.
type ActionKind int

const (
	ActionAttack ActionKind = iota + 1
	ActionSwitch
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionSwitch:
		return "switch"
	default:
		return "invalid"
	}
}

// Action is the choice a side makes for its turn: attack with a known move,
// or switch the active creature to another roster slot.
type Action struct {
	Kind  ActionKind
	Move  string
	Index int
}

// Attack builds an attack action.
func Attack(move string) Action {
	return Action{Kind: ActionAttack, Move: move}
}

// Switch builds a switch action targeting roster slot index.
func Switch(index int) Action {
	return Action{Kind: ActionSwitch, Index: index}
}
