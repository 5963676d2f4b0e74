package game

// NewCreature builds a battle creature. Effective stats are base + ivs and
// stay frozen for the creature's lifetime. IVs are clamped to 0..MaxIV and
// negative base values to 0.
func NewCreature(name string, types []string, base, ivs Stats, moves []string, artwork string) *Creature {
	base = base.clamp(0, -1)
	ivs = ivs.clamp(0, MaxIV)
	return &Creature{
		Name:      name,
		Types:     canonicalTypes(types),
		BaseStats: base,
		IVs:       ivs,
		Stats:     base.Add(ivs),
		Moves:     append([]string(nil), moves...),
		Artwork:   artwork,
	}
}

// RollIVs draws each individual value uniformly from 0..MaxIV.
func RollIVs(rng Rand) Stats {
	roll := func() int { return rng.IntN(MaxIV + 1) }
	return Stats{
		HP:             roll(),
		Attack:         roll(),
		Defense:        roll(),
		SpecialAttack:  roll(),
		SpecialDefense: roll(),
		Speed:          roll(),
	}
}

// canonicalTypes normalises and de-duplicates type tags, keeping order.
func canonicalTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		ct := CanonicalType(t)
		if ct == "" || seen[ct] {
			continue
		}
		seen[ct] = true
		out = append(out, ct)
	}
	return out
}
