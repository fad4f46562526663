package room

import "testing"

func TestNewCustomClampsMultipliersAndLives(t *testing.T) {
	cfg := NewCustom(10.0, -5.0, 1.0, 99, true)

	if cfg.EnemyStatMultiplier != maxMultiplier {
		t.Fatalf("expected enemy multiplier clamped to %v, got %v", maxMultiplier, cfg.EnemyStatMultiplier)
	}
	if cfg.PlayerSpeedMultiplier != minMultiplier {
		t.Fatalf("expected player speed multiplier clamped to %v, got %v", minMultiplier, cfg.PlayerSpeedMultiplier)
	}
	if cfg.ScoreMultiplier != 1.0 {
		t.Fatalf("expected score multiplier unchanged at 1.0, got %v", cfg.ScoreMultiplier)
	}
	if cfg.PlayerLives != maxLives {
		t.Fatalf("expected lives clamped to %v, got %v", maxLives, cfg.PlayerLives)
	}
	if !cfg.FriendlyFire {
		t.Fatalf("expected friendly fire flag preserved")
	}
	if cfg.Difficulty != DifficultyCustom {
		t.Fatalf("expected DifficultyCustom tag")
	}
}

func TestNewCustomClampsBelowMinimumLives(t *testing.T) {
	cfg := NewCustom(1.0, 1.0, 1.0, 0, false)
	if cfg.PlayerLives != minLives {
		t.Fatalf("expected lives clamped up to %v, got %v", minLives, cfg.PlayerLives)
	}
}

func TestNewPresetDifficultiesDiffer(t *testing.T) {
	noob := NewPreset(DifficultyNoob)
	hell := NewPreset(DifficultyHell)
	nightmare := NewPreset(DifficultyNightmare)

	if noob.EnemyStatMultiplier >= hell.EnemyStatMultiplier {
		t.Fatalf("expected noob enemies weaker than hell")
	}
	if hell.EnemyStatMultiplier >= nightmare.EnemyStatMultiplier {
		t.Fatalf("expected hell enemies weaker than nightmare")
	}
	if noob.PlayerLives <= nightmare.PlayerLives {
		t.Fatalf("expected noob to grant more lives than nightmare")
	}
}
