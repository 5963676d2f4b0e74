package game

import (
	"errors"
	"testing"
)

func TestNewState_InvalidRosters(t *testing.T) {
	alive := mon("Pikachu", []string{TypeElectric}, 35, 90, "Thunder Shock")
	fainted := mon("Ghost", nil, 0, 10)

	tests := []struct {
		name     string
		player   []*Creature
		opponent []*Creature
	}{
		{"empty player", nil, []*Creature{alive}},
		{"empty opponent", []*Creature{alive}, []*Creature{}},
		{"nil slot", []*Creature{alive, nil}, []*Creature{alive}},
		{"nobody can fight", []*Creature{alive}, []*Creature{fainted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewState(tt.player, tt.opponent)
			if !errors.Is(err, ErrInvalidRoster) {
				t.Errorf("Expected ErrInvalidRoster, got %v", err)
			}
		})
	}
}

func TestNewState_StartsOnFirstLivingSlot(t *testing.T) {
	s, err := NewState(
		[]*Creature{mon("A", nil, 0, 10), mon("B", nil, 20, 10)},
		[]*Creature{mon("C", nil, 30, 10)},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.ActiveIndex(SidePlayer) != 1 {
		t.Errorf("Expected player active index 1, got %d", s.ActiveIndex(SidePlayer))
	}
	if s.HP(SideOpponent) != 30 {
		t.Errorf("Expected opponent HP 30, got %d", s.HP(SideOpponent))
	}
}

func TestApplyDamage_HPBounds(t *testing.T) {
	s, err := NewState(
		[]*Creature{mon("A", nil, 50, 10), mon("B", nil, 40, 10)},
		[]*Creature{mon("C", nil, 30, 10)},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	hits := []int{7, -20, 0, 13, 1000, 5, -1}
	for _, h := range hits {
		s.ApplyDamage(SidePlayer, h)
		s.ApplyDamage(SideOpponent, h)
		for _, side := range []Side{SidePlayer, SideOpponent} {
			for i := range s.Roster(side) {
				hp := s.HPAt(side, i)
				if hp < 0 || hp > s.MaxHP(side, i) {
					t.Fatalf("HP out of bounds for %s slot %d: %d (max %d)", side, i, hp, s.MaxHP(side, i))
				}
			}
		}
	}

	if s.HP(SidePlayer) != 0 {
		t.Errorf("Expected active player HP 0, got %d", s.HP(SidePlayer))
	}
	if s.HPAt(SidePlayer, 1) != 40 {
		t.Errorf("Expected bench HP untouched at 40, got %d", s.HPAt(SidePlayer, 1))
	}
}

func TestApplyDamage_ReturnsDealt(t *testing.T) {
	s, _ := NewState([]*Creature{mon("A", nil, 10, 10)}, []*Creature{mon("B", nil, 10, 10)})

	if got := s.ApplyDamage(SideOpponent, 4); got != 4 {
		t.Errorf("Expected 4 dealt, got %d", got)
	}
	if got := s.ApplyDamage(SideOpponent, 50); got != 6 {
		t.Errorf("Expected overkill to deal 6, got %d", got)
	}
	if got := s.ApplyDamage(SideOpponent, -3); got != 0 {
		t.Errorf("Expected negative damage to deal 0, got %d", got)
	}
	if !s.IsKO(SideOpponent) || !s.Defeated(SideOpponent) {
		t.Error("Expected opponent to be KO and defeated")
	}
}

func TestSwitchTo_Legality(t *testing.T) {
	s, _ := NewState(
		[]*Creature{mon("A", nil, 10, 10), mon("B", nil, 10, 10), mon("C", nil, 10, 10)},
		[]*Creature{mon("D", nil, 10, 10)},
	)
	_ = s.SwitchTo(SidePlayer, 2)
	s.ApplyDamage(SidePlayer, 10)
	_ = s.SwitchTo(SidePlayer, 0)

	for _, j := range []int{-1, 0, 1, 2, 3, 99} {
		can := s.CanSwitchTo(SidePlayer, j)
		before := s.ActiveIndex(SidePlayer)
		err := s.SwitchTo(SidePlayer, j)

		if can && err != nil {
			t.Errorf("Slot %d: expected switch to succeed, got %v", j, err)
		}
		if !can {
			if !errors.Is(err, ErrIllegalSwitch) {
				t.Errorf("Slot %d: expected ErrIllegalSwitch, got %v", j, err)
			}
			if s.ActiveIndex(SidePlayer) != before {
				t.Errorf("Slot %d: expected active index to stay %d, got %d", j, before, s.ActiveIndex(SidePlayer))
			}
		}
		if can {
			// restore for the next probe
			s.active[SidePlayer] = before
		}
	}

	if s.CanSwitchTo(SidePlayer, 2) {
		t.Error("Expected fainted slot 2 to be rejected")
	}
	if !s.CanSwitchTo(SidePlayer, 1) {
		t.Error("Expected living bench slot 1 to be allowed")
	}
}

func TestAutoSwitchFirstAlive_ScansFromZero(t *testing.T) {
	hps := []int{0, 0, 5, 0, 8}
	roster := make([]*Creature, len(hps))
	for i := range hps {
		roster[i] = mon(string(rune('A'+i)), nil, 10, 10)
	}

	for prev := range hps {
		s, _ := NewState(roster, []*Creature{mon("Z", nil, 10, 10)})
		s.active[SidePlayer] = prev
		for i, hp := range hps {
			s.hp[SidePlayer][i] = hp
		}

		if !s.AutoSwitchFirstAlive(SidePlayer) {
			t.Fatalf("Expected a living creature with previous index %d", prev)
		}
		if s.ActiveIndex(SidePlayer) != 2 {
			t.Errorf("Previous index %d: expected 2, got %d", prev, s.ActiveIndex(SidePlayer))
		}
	}
}

func TestAutoSwitchFirstAlive_Defeated(t *testing.T) {
	s, _ := NewState([]*Creature{mon("A", nil, 10, 10)}, []*Creature{mon("B", nil, 10, 10)})
	s.ApplyDamage(SideOpponent, 10)

	if s.AutoSwitchFirstAlive(SideOpponent) {
		t.Error("Expected no living creature")
	}
	if s.ActiveIndex(SideOpponent) != 0 {
		t.Errorf("Expected active index unchanged, got %d", s.ActiveIndex(SideOpponent))
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	a := mon("A", []string{TypeFire}, 10, 10, "Ember")
	s, _ := NewState([]*Creature{a, mon("B", nil, 10, 10)}, []*Creature{mon("C", nil, 10, 10)})

	snap := s.Snapshot()
	snap.Player.Members[0].Moves[0] = "Hacked"
	snap.Player.Members[0].HP = 999

	if a.Moves[0] != "Ember" {
		t.Errorf("Expected creature moves untouched, got %v", a.Moves)
	}
	if s.HP(SidePlayer) != 10 {
		t.Errorf("Expected state HP untouched, got %d", s.HP(SidePlayer))
	}
	if got := len(s.Snapshot().Player.SwitchTargets()); got != 1 {
		t.Errorf("Expected 1 switch target, got %d", got)
	}
}
