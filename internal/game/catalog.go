package game

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the read-only move lookup table. It is loaded once before any
// battle starts and is safe for concurrent readers.
type Catalog struct {
	moves map[string]Move
}

type catalogFile struct {
	Moves []rawMove `yaml:"moves"`
}

// rawMove accepts the original data's French keys alongside the English ones.
type rawMove struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Power     any    `yaml:"power"`
	Damage    any    `yaml:"damage"`
	Category  string `yaml:"category"`
	Categorie string `yaml:"categorie"`
}

// NewCatalog builds a catalog from already-parsed moves. Names, types and
// categories are normalised; later duplicates replace earlier ones.
func NewCatalog(moves ...Move) *Catalog {
	c := &Catalog{moves: make(map[string]Move, len(moves))}
	for _, m := range moves {
		key := Normalize(m.Name)
		if key == "" {
			continue
		}
		m.Type = CanonicalType(m.Type)
		if m.Type == "" {
			m.Type = TypeNormal
		}
		m.Category = ParseCategory(string(m.Category))
		if m.Power < 0 {
			m.Power = DefaultRules().DefaultPower
		}
		c.moves[key] = m
	}
	return c
}

// LoadCatalog loads a move catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}

// ParseCatalog parses catalog YAML. Moves with a missing or malformed power
// get the default power instead of failing the load.
func ParseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse move catalog: %w", err)
	}
	moves := make([]Move, 0, len(f.Moves))
	for _, rm := range f.Moves {
		if strings.TrimSpace(rm.Name) == "" {
			continue
		}
		raw := rm.Power
		if raw == nil {
			raw = rm.Damage
		}
		cat := rm.Category
		if cat == "" {
			cat = rm.Categorie
		}
		moves = append(moves, Move{
			Name:     strings.TrimSpace(rm.Name),
			Type:     rm.Type,
			Power:    parsePower(raw, DefaultRules().DefaultPower),
			Category: Category(cat),
		})
	}
	return NewCatalog(moves...), nil
}

// Lookup finds a move by name, ignoring case, accents and spacing.
func (c *Catalog) Lookup(name string) (Move, bool) {
	if c == nil {
		return Move{}, false
	}
	m, ok := c.moves[Normalize(name)]
	return m, ok
}

// Len returns the number of moves in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.moves)
}

// ParseCategory maps English and French damage-class spellings to a
// Category. Anything else is CategoryUnknown.
func ParseCategory(s string) Category {
	switch Normalize(s) {
	case "physical", "physique":
		return CategoryPhysical
	case "special", "speciale":
		return CategorySpecial
	default:
		return CategoryUnknown
	}
}

func parsePower(v any, def int) int {
	switch p := v.(type) {
	case int:
		if p >= 0 {
			return p
		}
	case float64:
		if p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0) {
			return int(p)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
