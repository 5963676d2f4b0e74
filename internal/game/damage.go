package game

import "math"

// DamageResult is the outcome of one attack calculation with its breakdown.
type DamageResult struct {
	Damage        int      `json:"damage"`
	Critical      bool     `json:"critical"`
	Effectiveness float64  `json:"effectiveness"`
	STAB          bool     `json:"stab"`
	Category      Category `json:"category"`
	Power         int      `json:"power"`
	MoveType      string   `json:"move_type"`
	Variance      float64  `json:"variance"`
	// Known is false when the move was missing from the catalog and the
	// fallback damage was used.
	Known bool `json:"known"`
}

// Calculator resolves attacks. It reads only the catalog, the type chart
// and its random source, so results are reproducible for a seeded Rand.
type Calculator struct {
	Catalog *Catalog
	Chart   TypeChart
	Rules   Rules
	Rand    Rand
}

// Calculate computes the damage attacker deals to defender with moveName.
func (c *Calculator) Calculate(attacker, defender *Creature, moveName string) DamageResult {
	rules := c.Rules.withDefaults()
	chart := c.Chart
	if chart == nil {
		chart = DefaultTypeChart()
	}

	mv, ok := c.Catalog.Lookup(moveName)
	if !ok {
		span := rules.FallbackMaxDamage - rules.FallbackMinDamage + 1
		return DamageResult{
			Damage:        rules.FallbackMinDamage + c.Rand.IntN(span),
			Effectiveness: 1,
			Variance:      1,
		}
	}

	power := mv.Power
	if power < 0 {
		power = rules.DefaultPower
	}
	atk, def, cat := statPair(attacker.Stats, defender.Stats, mv.Category, power, rules.PhysicalPowerThreshold)

	stab := attacker.HasType(mv.Type)
	eff := chart.Effectiveness(mv.Type, defender.Types)
	// Both draws happen even for immune targets so the random stream does
	// not depend on the matchup.
	crit := c.Rand.Float64()*float64(rules.CritChance) < 1
	variance := rules.VarianceMin + c.Rand.Float64()*(rules.VarianceMax-rules.VarianceMin)

	level := float64(rules.Level)
	core := ((2*level/5+2)*float64(power)*(float64(atk)/float64(max(1, def))))/50 + 2

	mod := eff * variance
	if stab {
		mod *= rules.STABMultiplier
	}
	if crit {
		mod *= rules.CritMultiplier
	}

	dmg := 0
	if eff != 0 {
		dmg = max(1, int(math.Floor(core*mod)))
	}

	return DamageResult{
		Damage:        dmg,
		Critical:      crit,
		Effectiveness: eff,
		STAB:          stab,
		Category:      cat,
		Power:         power,
		MoveType:      mv.Type,
		Variance:      variance,
		Known:         true,
	}
}

// statPair picks the attacking and defending stats for a move. Moves with no
// category use the physical pair at or above the power threshold.
func statPair(atk, def Stats, cat Category, power, threshold int) (int, int, Category) {
	if cat == CategoryUnknown {
		cat = CategorySpecial
		if power >= threshold {
			cat = CategoryPhysical
		}
	}
	if cat == CategoryPhysical {
		return atk.Attack, def.Defense, cat
	}
	return atk.SpecialAttack, def.SpecialDefense, cat
}
