package game

import "time"

// FallbackMove is used when a creature knows no moves at all. It is not
// expected in the catalog, so it resolves to fallback damage.
const FallbackMove = "struggle"

// MaxIV is the highest individual value a stat can roll.
const MaxIV = 31

// Rules holds the tunable battle constants. Zero fields take the defaults
// from DefaultRules.
type Rules struct {
	// Level is the notional level every creature fights at.
	Level int
	// CritChance is the N in a 1-in-N critical hit chance.
	CritChance     int
	CritMultiplier float64
	STABMultiplier float64
	VarianceMin    float64
	VarianceMax    float64
	// Damage range for moves missing from the catalog.
	FallbackMinDamage int
	FallbackMaxDamage int
	// DefaultPower replaces missing or malformed catalog power values.
	DefaultPower int
	// PhysicalPowerThreshold decides the stat pair of moves with no category.
	PhysicalPowerThreshold int
	// ActionTimeout bounds each wait for the player's choice.
	ActionTimeout time.Duration
	// MaxActionAttempts caps rejected choices before a random move is used.
	MaxActionAttempts int
	// MaxTurns ends battles that cannot progress (mutual immunity).
	MaxTurns int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		Level:                  50,
		CritChance:             16,
		CritMultiplier:         1.5,
		STABMultiplier:         1.5,
		VarianceMin:            0.85,
		VarianceMax:            1.0,
		FallbackMinDamage:      5,
		FallbackMaxDamage:      10,
		DefaultPower:           50,
		PhysicalPowerThreshold: 60,
		ActionTimeout:          20 * time.Second,
		MaxActionAttempts:      10,
		MaxTurns:               1000,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.Level <= 0 {
		r.Level = d.Level
	}
	if r.CritChance <= 0 {
		r.CritChance = d.CritChance
	}
	if r.CritMultiplier <= 0 {
		r.CritMultiplier = d.CritMultiplier
	}
	if r.STABMultiplier <= 0 {
		r.STABMultiplier = d.STABMultiplier
	}
	if r.VarianceMin <= 0 || r.VarianceMax <= 0 || r.VarianceMin > r.VarianceMax {
		r.VarianceMin, r.VarianceMax = d.VarianceMin, d.VarianceMax
	}
	if r.FallbackMinDamage <= 0 || r.FallbackMaxDamage < r.FallbackMinDamage {
		r.FallbackMinDamage, r.FallbackMaxDamage = d.FallbackMinDamage, d.FallbackMaxDamage
	}
	if r.DefaultPower <= 0 {
		r.DefaultPower = d.DefaultPower
	}
	if r.PhysicalPowerThreshold <= 0 {
		r.PhysicalPowerThreshold = d.PhysicalPowerThreshold
	}
	if r.ActionTimeout <= 0 {
		r.ActionTimeout = d.ActionTimeout
	}
	if r.MaxActionAttempts <= 0 {
		r.MaxActionAttempts = d.MaxActionAttempts
	}
	if r.MaxTurns <= 0 {
		r.MaxTurns = d.MaxTurns
	}
	return r
}
