package level

import (
	"testing"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

func fixtureLevel() *LevelData {
	return &LevelData{
		Templates: Templates{
			Hitboxes:  map[string]HitboxTemplate{"grunt": {W: 1, H: 1}},
			Colliders: map[string]ColliderTemplate{"grunt": {Shape: "box", DimX: 0.5, DimY: 0.5}},
			Enemies:   map[string]EnemyTemplate{"grunt": {HitboxTemplate: "grunt", ColliderTemplate: "grunt", Health: 10, ScoreValue: 50}},
			Obstacles: map[string]ObstacleTemplate{},
		},
		Bosses: map[string]BossDef{
			"boss1": {HitboxTemplate: "grunt", ColliderTemplate: "grunt", Health: 500, ScoreValue: 1000, Spawn: Point2{X: 100, Y: 50}},
		},
	}
}

func TestSpawnWaveLineSpacing(t *testing.T) {
	r := ecs.NewRegistry()
	s := NewSpawnSystem(fixtureLevel())
	d := NewDirector(&LevelData{Segments: []Segment{{}}})

	ids := s.Apply(r, d, DirectorEvent{Event: Event{
		ID: "wave1", Kind: EventSpawnWave,
		Wave: &WaveSpec{Kind: WaveLine, Template: "grunt", Count: 3, Spacing: 2, OriginX: 0, OriginY: 0},
	}})

	if len(ids) != 3 {
		t.Fatalf("expected 3 spawned enemies, got %d", len(ids))
	}
	for i, id := range ids {
		transform, err := ecs.Get[components.Transform](r, id)
		if err != nil {
			t.Fatalf("expected Transform on spawned enemy: %v", err)
		}
		wantY := float64(i) * 2
		if transform.Y != wantY {
			t.Fatalf("enemy %d: expected y=%v, got %v", i, wantY, transform.Y)
		}
	}
}

func TestSpawnWaveRegistersSpawnGroup(t *testing.T) {
	r := ecs.NewRegistry()
	s := NewSpawnSystem(fixtureLevel())
	d := NewDirector(&LevelData{Segments: []Segment{{}}})

	ev := Event{ID: "wave1", Kind: EventSpawnWave, Wave: &WaveSpec{Kind: WaveLine, Template: "grunt", Count: 2}}
	s.Apply(r, d, DirectorEvent{Event: ev})

	ctx := triggerContext{director: d, registry: r}
	if ctx.evalTrigger(Trigger{Kind: TriggerSpawnDead, SpawnID: "wave1"}) {
		t.Fatalf("expected group alive immediately after spawn")
	}
}

func TestSpawnBossAppliesStatsAndTags(t *testing.T) {
	r := ecs.NewRegistry()
	s := NewSpawnSystem(fixtureLevel())
	d := NewDirector(&LevelData{Segments: []Segment{{}}})

	ids := s.Apply(r, d, DirectorEvent{Event: Event{
		ID: "boss-spawn", Kind: EventSpawnBoss, Boss: &BossSpawnSpec{BossID: "boss1"},
	}})
	if len(ids) != 1 {
		t.Fatalf("expected exactly one boss entity, got %d", len(ids))
	}

	health, err := ecs.Get[components.Health](r, ids[0])
	if err != nil || health.Max != 500 {
		t.Fatalf("expected boss health 500, got %+v err=%v", health, err)
	}
	tag, err := ecs.Get[components.Tag](r, ids[0])
	if err != nil || !tag.Has(components.TagBoss) || !tag.Has(components.TagEnemy) {
		t.Fatalf("expected boss+enemy tag bits set, got %+v err=%v", tag, err)
	}
}

func TestSpawnWaveOverridesHealthAndScale(t *testing.T) {
	r := ecs.NewRegistry()
	s := NewSpawnSystem(fixtureLevel())
	d := NewDirector(&LevelData{Segments: []Segment{{}}})

	overrideHealth := 3.0
	overrideScale := 2.0
	ids := s.Apply(r, d, DirectorEvent{Event: Event{
		ID: "wave1", Kind: EventSpawnWave,
		Wave: &WaveSpec{Kind: WaveLine, Template: "grunt", Count: 1, Health: &overrideHealth, Scale: &overrideScale},
	}})

	health, _ := ecs.Get[components.Health](r, ids[0])
	if health.Max != 3 {
		t.Fatalf("expected overridden health 3, got %v", health.Max)
	}
	transform, _ := ecs.Get[components.Transform](r, ids[0])
	if transform.ScaleX != 2 {
		t.Fatalf("expected overridden scale 2, got %v", transform.ScaleX)
	}
}
