package game

import "fmt"

// State owns the two rosters of one battle and everything that changes
// while it runs: the active slot and remaining HP of each side. It performs
// no I/O and draws no random numbers.
//
// For each side the active slot is alive, or the whole side is defeated,
// except between a faint and the forced switch that follows it.
type State struct {
	rosters [2][]*Creature
	hp      [2][]int
	active  [2]int
}

// NewState creates the state for a battle between two rosters. Both rosters
// must be non-empty, contain no nil creatures and have at least one creature
// with HP above zero.
func NewState(player, opponent []*Creature) (*State, error) {
	s := &State{}
	for side, roster := range [2][]*Creature{player, opponent} {
		if len(roster) == 0 {
			return nil, fmt.Errorf("%w: %s roster is empty", ErrInvalidRoster, Side(side))
		}
		hp := make([]int, len(roster))
		for i, c := range roster {
			if c == nil {
				return nil, fmt.Errorf("%w: %s roster slot %d is empty", ErrInvalidRoster, Side(side), i)
			}
			hp[i] = max(0, c.Stats.HP)
		}
		s.rosters[side] = append([]*Creature(nil), roster...)
		s.hp[side] = hp
		if !s.AutoSwitchFirstAlive(Side(side)) {
			return nil, fmt.Errorf("%w: %s roster has no creature able to fight", ErrInvalidRoster, Side(side))
		}
	}
	return s, nil
}

// Roster returns a copy of a side's roster in battle order.
func (s *State) Roster(side Side) []*Creature {
	return append([]*Creature(nil), s.rosters[side]...)
}

// Active returns the creature currently active for side.
func (s *State) Active(side Side) *Creature {
	return s.rosters[side][s.active[side]]
}

// ActiveIndex returns the roster slot of the active creature.
func (s *State) ActiveIndex(side Side) int {
	return s.active[side]
}

// HP returns the remaining HP of the active creature.
func (s *State) HP(side Side) int {
	return s.hp[side][s.active[side]]
}

// HPAt returns the remaining HP of roster slot i, or 0 if i is out of range.
func (s *State) HPAt(side Side, i int) int {
	if i < 0 || i >= len(s.hp[side]) {
		return 0
	}
	return s.hp[side][i]
}

// MaxHP returns the starting HP of roster slot i.
func (s *State) MaxHP(side Side, i int) int {
	if i < 0 || i >= len(s.rosters[side]) {
		return 0
	}
	return max(0, s.rosters[side][i].Stats.HP)
}

// IsKO reports whether the active creature has fainted.
func (s *State) IsKO(side Side) bool {
	return s.HP(side) == 0
}

// Defeated reports whether every creature of side has fainted.
func (s *State) Defeated(side Side) bool {
	for _, hp := range s.hp[side] {
		if hp > 0 {
			return false
		}
	}
	return true
}

// ApplyDamage removes amount HP from the active creature, flooring at zero.
// Negative amounts are treated as zero. It returns the HP actually removed.
func (s *State) ApplyDamage(side Side, amount int) int {
	if amount < 0 {
		amount = 0
	}
	i := s.active[side]
	cur := s.hp[side][i]
	dealt := min(cur, amount)
	s.hp[side][i] = cur - dealt
	return dealt
}

// CanSwitchTo reports whether side may switch its active creature to slot i:
// i must be in range, not the current slot, and still alive.
func (s *State) CanSwitchTo(side Side, i int) bool {
	if i < 0 || i >= len(s.rosters[side]) {
		return false
	}
	if i == s.active[side] {
		return false
	}
	return s.hp[side][i] > 0
}

// SwitchTo makes slot i the active creature. The state is unchanged when
// the switch is not allowed.
func (s *State) SwitchTo(side Side, i int) error {
	if !s.CanSwitchTo(side, i) {
		return fmt.Errorf("%w: %s cannot switch to slot %d", ErrIllegalSwitch, side, i)
	}
	s.active[side] = i
	return nil
}

// AutoSwitchFirstAlive activates the first living creature scanning from
// slot 0, regardless of which slot was active before. It returns false and
// changes nothing when no creature is left, meaning the side is defeated.
func (s *State) AutoSwitchFirstAlive(side Side) bool {
	for i, hp := range s.hp[side] {
		if hp > 0 {
			s.active[side] = i
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the battle as collaborators see it.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Player:   s.sideSnapshot(SidePlayer),
		Opponent: s.sideSnapshot(SideOpponent),
	}
}

func (s *State) sideSnapshot(side Side) SideSnapshot {
	members := make([]Member, len(s.rosters[side]))
	for i, c := range s.rosters[side] {
		members[i] = Member{
			Index:   i,
			Name:    c.Name,
			Types:   append([]string(nil), c.Types...),
			HP:      s.hp[side][i],
			MaxHP:   s.MaxHP(side, i),
			Moves:   append([]string(nil), c.Moves...),
			Artwork: c.Artwork,
		}
	}
	return SideSnapshot{Active: s.active[side], Members: members}
}

// Snapshot is an immutable view of a battle handed to interactors and
// strategies.
type Snapshot struct {
	BattleID string       `json:"battle_id,omitempty"`
	Turn     int          `json:"turn"`
	Phase    string       `json:"phase,omitempty"`
	Player   SideSnapshot `json:"player"`
	Opponent SideSnapshot `json:"opponent"`
}

// Side returns the view of one side.
func (s Snapshot) Side(side Side) SideSnapshot {
	if side == SideOpponent {
		return s.Opponent
	}
	return s.Player
}

// SideSnapshot is one team in a Snapshot.
type SideSnapshot struct {
	Active  int      `json:"active"`
	Members []Member `json:"members"`
}

// ActiveMember returns the active creature's entry.
func (s SideSnapshot) ActiveMember() Member {
	if s.Active < 0 || s.Active >= len(s.Members) {
		return Member{}
	}
	return s.Members[s.Active]
}

// SwitchTargets lists the slots the side could switch to.
func (s SideSnapshot) SwitchTargets() []Member {
	var out []Member
	for _, m := range s.Members {
		if m.Index != s.Active && m.HP > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Member is one roster slot in a Snapshot.
type Member struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Types   []string `json:"types"`
	HP      int      `json:"hp"`
	MaxHP   int      `json:"max_hp"`
	Moves   []string `json:"moves"`
	Artwork string   `json:"artwork,omitempty"`
}
