package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Species is a dex entry: everything needed to create a creature except its
// individual values.
type Species struct {
	Name      string   `yaml:"name" json:"name"`
	Types     []string `yaml:"types" json:"types"`
	BaseStats Stats    `yaml:"stats" json:"stats"`
	Moves     []string `yaml:"moves" json:"moves"`
	Artwork   string   `yaml:"artwork" json:"artwork,omitempty"`
}

// Dex is the read-only species table.
type Dex struct {
	species map[string]Species
	names   []string
}

type dexFile struct {
	Species []Species `yaml:"species"`
}

// NewDex builds a dex. Later duplicates replace earlier ones.
func NewDex(species ...Species) *Dex {
	d := &Dex{species: make(map[string]Species, len(species))}
	for _, s := range species {
		s.Name = strings.TrimSpace(s.Name)
		key := Normalize(s.Name)
		if key == "" {
			continue
		}
		if _, dup := d.species[key]; !dup {
			d.names = append(d.names, s.Name)
		}
		s.Types = canonicalTypes(s.Types)
		d.species[key] = s
	}
	sort.Strings(d.names)
	return d
}

// LoadDex loads a species table from a YAML file.
func LoadDex(path string) (*Dex, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	return ParseDex(b)
}

// ParseDex parses dex YAML.
func ParseDex(b []byte) (*Dex, error) {
	var f dexFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse dex: %w", err)
	}
	return NewDex(f.Species...), nil
}

// Lookup finds a species by name, ignoring case and accents.
func (d *Dex) Lookup(name string) (Species, bool) {
	if d == nil {
		return Species{}, false
	}
	s, ok := d.species[Normalize(name)]
	return s, ok
}

// Names returns every species name in alphabetical order.
func (d *Dex) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Len returns the number of species.
func (d *Dex) Len() int {
	if d == nil {
		return 0
	}
	return len(d.species)
}

// Spawn creates a fresh creature of the named species with rolled IVs.
func (d *Dex) Spawn(name string, rng Rand) (*Creature, bool) {
	s, ok := d.Lookup(name)
	if !ok {
		return nil, false
	}
	return s.Creature(RollIVs(rng)), true
}

// Creature builds a creature of this species with the given IVs.
func (s Species) Creature(ivs Stats) *Creature {
	return NewCreature(s.Name, s.Types, s.BaseStats, ivs, s.Moves, s.Artwork)
}
