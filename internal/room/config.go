// Package room implements the per-room lifecycle and thread composition
// of spec.md §4.5's room/session state.
package room

import "math"

// Difficulty selects one of the built-in presets, or Custom to use the
// RoomConfig's own multiplier fields.
type Difficulty uint8

const (
	DifficultyNoob Difficulty = iota
	DifficultyHell
	DifficultyNightmare
	DifficultyCustom
)

const (
	minMultiplier = 0.5
	maxMultiplier = 2.0
	minLives      = 1
	maxLives      = 10
)

// RoomConfig carries a difficulty preset or a clamped Custom profile, per
// spec.md §3. FriendlyFire is SPEC_FULL.md §7's per-room toggle, off by
// default, consumed by sim.DamageSystem.
type RoomConfig struct {
	Difficulty Difficulty

	EnemyStatMultiplier  float64
	PlayerSpeedMultiplier float64
	ScoreMultiplier       float64
	PlayerLives           int

	FriendlyFire bool
}

// NewPreset builds a RoomConfig for one of the built-in difficulty
// presets.
func NewPreset(d Difficulty) RoomConfig {
	switch d {
	case DifficultyHell:
		return RoomConfig{Difficulty: d, EnemyStatMultiplier: 1.5, PlayerSpeedMultiplier: 1.0, ScoreMultiplier: 1.5, PlayerLives: 2}
	case DifficultyNightmare:
		return RoomConfig{Difficulty: d, EnemyStatMultiplier: 2.0, PlayerSpeedMultiplier: 0.9, ScoreMultiplier: 2.0, PlayerLives: 1}
	default:
		return RoomConfig{Difficulty: DifficultyNoob, EnemyStatMultiplier: 0.75, PlayerSpeedMultiplier: 1.1, ScoreMultiplier: 1.0, PlayerLives: 5}
	}
}

// NewCustom builds a Custom RoomConfig, clamping every multiplier to
// [0.5, 2.0] and lives to [1, 10], per spec.md §3.
func NewCustom(enemyStat, playerSpeed, score float64, lives int, friendlyFire bool) RoomConfig {
	return RoomConfig{
		Difficulty:            DifficultyCustom,
		EnemyStatMultiplier:   clampMultiplier(enemyStat),
		PlayerSpeedMultiplier: clampMultiplier(playerSpeed),
		ScoreMultiplier:       clampMultiplier(score),
		PlayerLives:           clampLives(lives),
		FriendlyFire:          friendlyFire,
	}
}

func clampMultiplier(v float64) float64 {
	if math.IsNaN(v) {
		return minMultiplier
	}
	if v < minMultiplier {
		return minMultiplier
	}
	if v > maxMultiplier {
		return maxMultiplier
	}
	return v
}

func clampLives(v int) int {
	if v < minLives {
		return minLives
	}
	if v > maxLives {
		return maxLives
	}
	return v
}
