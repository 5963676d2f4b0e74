package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDexYAML = `species:
  - name: Pikachu
    types: [electric]
    stats: {hp: 35, attack: 55, defense: 40, special_attack: 50, special_defense: 50, speed: 90}
    moves: [Thunder Shock, Tackle]
  - name: Bulbizarre
    types: [Plante, poison]
    stats: {hp: 45, attack: 49, defense: 49, special_attack: 65, special_defense: 65, speed: 45}
    moves: [Vine Whip]
  - name: Charmander
    types: [fire]
    stats: {hp: 39, attack: 52, defense: 43, special_attack: 60, special_defense: 50, speed: 65}
    moves: [Ember]
  - name: Squirtle
    types: [water]
    stats: {hp: 44, attack: 48, defense: 65, special_attack: 50, special_defense: 64, speed: 43}
    moves: [Water Gun]
  - name: Rattata
    types: [normal]
    stats: {hp: 30, attack: 56, defense: 35, special_attack: 25, special_defense: 35, speed: 72}
    moves: [Tackle]
  - name: Gastly
    types: [ghost, poison]
    stats: {hp: 30, attack: 35, defense: 30, special_attack: 100, special_defense: 35, speed: 80}
    moves: [Lick]
  - name: Onix
    types: [rock, ground]
    stats: {hp: 35, attack: 45, defense: 160, special_attack: 30, special_defense: 45, speed: 70}
    moves: [Tackle]
`

const testOpponentsYAML = `opponents:
  - id: rookie
    name: Timmy the Rookie
    difficulty: easy
    team: [Rattata, Pikachu, Missingno]
    dialogue:
      intro: "Timmy: My first battle, let's go!"
    reward: {coins: 50}
  - id: brock
    name: Brock
    difficulty: medium
    team: [Onix]
    reward: {coins: 200, badge: 1}
  - id: wanderer
    name: Wandering Trainer
    difficulty: variable
    team: [random]
  - name: no id
`

func TestParseDex(t *testing.T) {
	dex, err := ParseDex([]byte(testDexYAML))
	require.NoError(t, err)
	assert.Equal(t, 7, dex.Len())

	s, ok := dex.Lookup("bulbizarre")
	require.True(t, ok)
	assert.Equal(t, []string{TypeGrass, TypePoison}, s.Types)
	assert.Equal(t, 45, s.BaseStats.HP)

	names := dex.Names()
	assert.Equal(t, "Bulbizarre", names[0])
	names[0] = "Changed"
	assert.Equal(t, "Bulbizarre", dex.Names()[0])
}

func TestDex_Spawn(t *testing.T) {
	dex, err := ParseDex([]byte(testDexYAML))
	require.NoError(t, err)

	rng := NewSeededRand(5)
	for i := 0; i < 100; i++ {
		c, ok := dex.Spawn("Pikachu", rng)
		require.True(t, ok)
		assert.GreaterOrEqual(t, c.Stats.HP, 35)
		assert.LessOrEqual(t, c.Stats.HP, 35+MaxIV)
		assert.Equal(t, c.BaseStats.Add(c.IVs), c.Stats)
		assert.Equal(t, []string{"Thunder Shock", "Tackle"}, c.Moves)
	}

	_, ok := dex.Spawn("Missingno", rng)
	assert.False(t, ok)
}

func TestParseOpponents(t *testing.T) {
	ops, err := ParseOpponents([]byte(testOpponentsYAML))
	require.NoError(t, err)
	assert.Len(t, ops.All(), 3)
	assert.Equal(t, "brock", ops.All()[0].ID)

	rookie, ok := ops.Get("rookie")
	require.True(t, ok)
	assert.Equal(t, "Timmy: My first battle, let's go!", rookie.Intro())
	assert.Equal(t, "Timmy the Rookie: Well played, you are an excellent trainer!", rookie.Victory())
	assert.Equal(t, "Timmy the Rookie: I won! Keep training!", rookie.Defeat())
	assert.Equal(t, 50, rookie.Reward.Coins)

	_, ok = ops.Get("giovanni")
	assert.False(t, ok)
}

func TestOpponent_RosterSkipsUnknownSpecies(t *testing.T) {
	dex, _ := ParseDex([]byte(testDexYAML))
	ops, _ := ParseOpponents([]byte(testOpponentsYAML))

	rookie, _ := ops.Get("rookie")
	team := rookie.Roster(dex, fixedRand{})
	require.Len(t, team, 2)
	assert.Equal(t, "Rattata", team[0].Name)
	assert.Equal(t, "Pikachu", team[1].Name)
}

func TestOpponent_RandomTeam(t *testing.T) {
	dex, _ := ParseDex([]byte(testDexYAML))
	ops, _ := ParseOpponents([]byte(testOpponentsYAML))
	wanderer, _ := ops.Get("wanderer")
	require.True(t, wanderer.IsRandomTeam())

	rng := NewSeededRand(8)
	sizes := map[int]bool{}
	for i := 0; i < 200; i++ {
		team := wanderer.Roster(dex, rng)
		require.GreaterOrEqual(t, len(team), MinRandomTeam)
		require.LessOrEqual(t, len(team), MaxRandomTeam)
		sizes[len(team)] = true

		seen := map[string]bool{}
		for _, c := range team {
			require.False(t, seen[c.Name], "duplicate %s in random team", c.Name)
			seen[c.Name] = true
		}
	}
	assert.Len(t, sizes, MaxRandomTeam-MinRandomTeam+1)
}

func TestOpponents_RandomAndDifficulty(t *testing.T) {
	ops, _ := ParseOpponents([]byte(testOpponentsYAML))
	rng := NewSeededRand(13)

	for i := 0; i < 50; i++ {
		o, ok := ops.Random("brock", rng)
		require.True(t, ok)
		assert.NotEqual(t, "brock", o.ID)
	}

	o, ok := ops.ByDifficulty("Medium", rng)
	require.True(t, ok)
	assert.Equal(t, "brock", o.ID)

	_, ok = ops.ByDifficulty("legendary", rng)
	assert.True(t, ok, "unknown difficulty falls back to any opponent")

	empty := NewOpponents()
	_, ok = empty.Random("", rng)
	assert.False(t, ok)
}
