package game

import "errors"

var (
	// ErrInvalidRoster is returned before a battle starts when a roster is
	// empty or cannot field a single creature.
	ErrInvalidRoster = errors.New("invalid roster")
	// ErrIllegalSwitch rejects a switch to a fainted, already active or
	// out-of-range slot.
	ErrIllegalSwitch = errors.New("illegal switch")
	// ErrActionTimeout is returned by an Interactor when the player did not
	// answer in time.
	ErrActionTimeout = errors.New("action timed out")
	// ErrActionCancelled is returned by an Interactor when the player
	// abandoned the battle. The engine treats it as a forfeit.
	ErrActionCancelled = errors.New("action cancelled")
)

// ErrBattleNotInProgress is returned when a battle step runs before the
// battle started or after it finished.
var ErrBattleNotInProgress = errors.New("battle not in progress")
