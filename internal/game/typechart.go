package game

// Elemental types.
const (
	TypeNormal   = "normal"
	TypeFire     = "fire"
	TypeWater    = "water"
	TypeGrass    = "grass"
	TypeElectric = "electric"
	TypeIce      = "ice"
	TypeFighting = "fighting"
	TypePoison   = "poison"
	TypeGround   = "ground"
	TypeFlying   = "flying"
	TypePsychic  = "psychic"
	TypeBug      = "bug"
	TypeRock     = "rock"
	TypeGhost    = "ghost"
	TypeDragon   = "dragon"
	TypeDark     = "dark"
	TypeSteel    = "steel"
	TypeFairy    = "fairy"
)

// French type names used by the original data files.
var typeAliases = map[string]string{
	"feu":        TypeFire,
	"eau":        TypeWater,
	"plante":     TypeGrass,
	"electrique": TypeElectric,
	"glace":      TypeIce,
	"combat":     TypeFighting,
	"sol":        TypeGround,
	"vol":        TypeFlying,
	"psy":        TypePsychic,
	"insecte":    TypeBug,
	"roche":      TypeRock,
	"spectre":    TypeGhost,
	"tenebres":   TypeDark,
	"acier":      TypeSteel,
	"fee":        TypeFairy,
}

// CanonicalType maps an English or French type name to its canonical tag.
// Unrecognised names are returned normalised.
func CanonicalType(name string) string {
	n := Normalize(name)
	if t, ok := typeAliases[n]; ok {
		return t
	}
	return n
}

// TypeChart maps attacking type -> defending type -> multiplier. Missing
// entries are neutral (x1).
type TypeChart map[string]map[string]float64

var defaultChart = TypeChart{
	TypeNormal: {TypeRock: 0.5, TypeSteel: 0.5, TypeGhost: 0},
	TypeFire: {
		TypeGrass: 2, TypeIce: 2, TypeBug: 2, TypeSteel: 2,
		TypeFire: 0.5, TypeWater: 0.5, TypeRock: 0.5, TypeDragon: 0.5,
	},
	TypeWater: {
		TypeFire: 2, TypeGround: 2, TypeRock: 2,
		TypeWater: 0.5, TypeGrass: 0.5, TypeDragon: 0.5,
	},
	TypeGrass: {
		TypeWater: 2, TypeGround: 2, TypeRock: 2,
		TypeFire: 0.5, TypeGrass: 0.5, TypePoison: 0.5, TypeFlying: 0.5,
		TypeDragon: 0.5, TypeSteel: 0.5, TypeBug: 0.5,
	},
	TypeElectric: {
		TypeWater: 2, TypeFlying: 2,
		TypeElectric: 0.5, TypeGrass: 0.5, TypeDragon: 0.5,
		TypeGround: 0,
	},
	TypeIce: {
		TypeGrass: 2, TypeGround: 2, TypeFlying: 2, TypeDragon: 2,
		TypeFire: 0.5, TypeWater: 0.5, TypeIce: 0.5, TypeSteel: 0.5,
	},
	TypeFighting: {
		TypeNormal: 2, TypeIce: 2, TypeRock: 2, TypeDark: 2, TypeSteel: 2,
		TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 0.5, TypeBug: 0.5, TypeFairy: 0.5,
		TypeGhost: 0,
	},
	TypePoison: {
		TypeGrass: 2, TypeFairy: 2,
		TypePoison: 0.5, TypeGround: 0.5, TypeRock: 0.5, TypeGhost: 0.5,
		TypeSteel: 0,
	},
	TypeGround: {
		TypeFire: 2, TypeElectric: 2, TypePoison: 2, TypeRock: 2, TypeSteel: 2,
		TypeGrass: 0.5, TypeBug: 0.5,
		TypeFlying: 0,
	},
	TypeFlying: {
		TypeGrass: 2, TypeFighting: 2, TypeBug: 2,
		TypeElectric: 0.5, TypeRock: 0.5, TypeSteel: 0.5,
	},
	TypePsychic: {
		TypeFighting: 2, TypePoison: 2,
		TypePsychic: 0.5, TypeSteel: 0.5,
		TypeDark: 0,
	},
	TypeBug: {
		TypeGrass: 2, TypePsychic: 2, TypeDark: 2,
		TypeFire: 0.5, TypeFighting: 0.5, TypeFlying: 0.5, TypePoison: 0.5,
		TypeGhost: 0.5, TypeSteel: 0.5, TypeFairy: 0.5,
	},
	TypeRock: {
		TypeFire: 2, TypeIce: 2, TypeFlying: 2, TypeBug: 2,
		TypeFighting: 0.5, TypeGround: 0.5, TypeSteel: 0.5,
	},
	TypeGhost: {
		TypePsychic: 2, TypeGhost: 2,
		TypeDark: 0.5,
		TypeNormal: 0,
	},
	TypeDragon: {
		TypeDragon: 2,
		TypeSteel:  0.5,
		TypeFairy:  0,
	},
	TypeDark: {
		TypePsychic: 2, TypeGhost: 2,
		TypeFighting: 0.5, TypeDark: 0.5, TypeFairy: 0.5,
	},
	TypeSteel: {
		TypeIce: 2, TypeRock: 2, TypeFairy: 2,
		TypeFire: 0.5, TypeWater: 0.5, TypeElectric: 0.5, TypeSteel: 0.5,
	},
	TypeFairy: {
		TypeFighting: 2, TypeDragon: 2, TypeDark: 2,
		TypeFire: 0.5, TypePoison: 0.5, TypeSteel: 0.5,
	},
}

// DefaultTypeChart returns the standard 18-type chart. The returned value is
// shared and must not be modified.
func DefaultTypeChart() TypeChart {
	return defaultChart
}

// Types lists the canonical types covered by the default chart.
func Types() []string {
	return []string{
		TypeNormal, TypeFire, TypeWater, TypeGrass, TypeElectric, TypeIce,
		TypeFighting, TypePoison, TypeGround, TypeFlying, TypePsychic, TypeBug,
		TypeRock, TypeGhost, TypeDragon, TypeDark, TypeSteel, TypeFairy,
	}
}

// Multiplier returns the single-type multiplier of attacking type atk
// against defending type def.
func (c TypeChart) Multiplier(atk, def string) float64 {
	row, ok := c[CanonicalType(atk)]
	if !ok {
		return 1
	}
	if m, ok := row[CanonicalType(def)]; ok {
		return m
	}
	return 1
}

// Effectiveness combines the multipliers of moveType against each of the
// defender's types. Any immunity makes the whole result 0.
func (c TypeChart) Effectiveness(moveType string, defender []string) float64 {
	mult := 1.0
	for _, t := range defender {
		m := c.Multiplier(moveType, t)
		if m == 0 {
			return 0
		}
		mult *= m
	}
	return mult
}
