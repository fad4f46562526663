package level

import (
	"math"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// SpawnSystem instantiates the entities named by a LevelData's templates,
// driven by DirectorEvents emitted from Director.Tick. It owns no state of
// its own beyond the level it was built from.
type SpawnSystem struct {
	level *LevelData
}

// NewSpawnSystem builds a SpawnSystem bound to level's templates/bosses.
func NewSpawnSystem(level *LevelData) *SpawnSystem {
	return &SpawnSystem{level: level}
}

// Apply instantiates every spawn-kind DirectorEvent against r, registers the
// spawned ids with d's spawn-group tracking, and returns them.
func (s *SpawnSystem) Apply(r *ecs.Registry, d *Director, de DirectorEvent) []ecs.EntityID {
	switch de.Event.Kind {
	case EventSpawnWave:
		ids := s.spawnWave(r, de.Event.Wave)
		d.RegisterSpawn(de.Event.SpawnGroupID(), ids...)
		return ids
	case EventSpawnObstacle:
		id := s.spawnObstacle(r, de.Event.Obstacle)
		d.RegisterSpawn(de.Event.SpawnGroupID(), id)
		return []ecs.EntityID{id}
	case EventSpawnBoss:
		id := s.spawnBoss(r, de.Event.Boss.BossID)
		d.RegisterSpawn(de.Event.SpawnGroupID(), id)
		d.RegisterBoss(de.Event.Boss.BossID, id)
		return []ecs.EntityID{id}
	default:
		return nil
	}
}

func (s *SpawnSystem) buildHitbox(name string) components.Hitbox {
	t := s.level.Templates.Hitboxes[name]
	return components.Hitbox{W: t.W, H: t.H, OffsetX: t.OffsetX, OffsetY: t.OffsetY, Active: true}
}

func (s *SpawnSystem) buildCollider(name string) components.Collider {
	t := s.level.Templates.Colliders[name]
	c := components.Collider{
		DimX: t.DimX, DimY: t.DimY,
		OffsetX: t.OffsetX, OffsetY: t.OffsetY,
		Active: true,
	}
	switch t.Shape {
	case "circle":
		c.Shape = components.ColliderCircle
	case "polygon":
		c.Shape = components.ColliderPolygon
		c.Points = make([]struct{ X, Y float64 }, len(t.Points))
		for i, p := range t.Points {
			c.Points[i] = struct{ X, Y float64 }{X: p.X, Y: p.Y}
		}
	default:
		c.Shape = components.ColliderBox
	}
	return c
}

func (s *SpawnSystem) spawnEnemy(r *ecs.Registry, tmplName string, x, y float64, pattern *PatternDef, overrides WaveSpec) ecs.EntityID {
	tmpl := s.level.Templates.Enemies[tmplName]
	scale := tmpl.Scale
	if scale == 0 {
		scale = 1
	}
	if overrides.Scale != nil {
		scale = *overrides.Scale
	}
	health := tmpl.Health
	if overrides.Health != nil {
		health = *overrides.Health
	}
	shooting := tmpl.ShootingEnabled
	if overrides.ShootingEnabled != nil {
		shooting = *overrides.ShootingEnabled
	}

	id := r.Create()
	_ = ecs.Emplace(r, id, components.Transform{X: x, Y: y, ScaleX: scale, ScaleY: scale})
	_ = ecs.Emplace(r, id, components.Velocity{})
	_ = ecs.Emplace(r, id, components.Health{Current: health, Max: health})
	_ = ecs.Emplace(r, id, components.ScoreValue{V: tmpl.ScoreValue})
	_ = ecs.Emplace(r, id, components.Tag{Bits: uint32(components.TagEnemy)})
	if tmpl.HitboxTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildHitbox(tmpl.HitboxTemplate))
	}
	if tmpl.ColliderTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildCollider(tmpl.ColliderTemplate))
	}
	if pattern != nil {
		_ = ecs.Emplace(r, id, components.Movement{
			Pattern: pattern.Pattern, Speed: pattern.Speed,
			Amplitude: pattern.Amplitude, Frequency: pattern.Frequency, Phase: pattern.Phase,
		})
	}
	if shooting {
		_ = ecs.Emplace(r, id, components.EnemyShooting{
			Interval: tmpl.ShootInterval, Speed: tmpl.ShootSpeed,
			Damage: tmpl.ShootDamage, Lifetime: tmpl.ShootLifetime,
		})
	}
	return id
}

// spawnWave lays out Count enemies of a template per the wave kind's
// geometry, grounded on spec.md §4.4.
func (s *SpawnSystem) spawnWave(r *ecs.Registry, w *WaveSpec) []ecs.EntityID {
	patterns := s.level.PatternTable()
	var pattern *PatternDef
	if w.PatternID != "" {
		if p, ok := patterns[w.PatternID]; ok {
			pattern = &p
		}
	}

	ids := make([]ecs.EntityID, 0, w.Count)
	for i := 0; i < w.Count; i++ {
		x, y := waveOffset(w, i)
		ids = append(ids, s.spawnEnemy(r, w.Template, w.OriginX+x, w.OriginY+y, pattern, *w))
	}
	return ids
}

func waveOffset(w *WaveSpec, i int) (float64, float64) {
	n := float64(i)
	switch w.Kind {
	case WaveLine:
		return 0, n * w.Spacing
	case WaveStagger:
		return n * w.StepTime * 10, n * w.Spacing
	case WaveTriangle:
		return n * w.HorizontalStep, n * w.RowHeight
	case WaveSerpent:
		return n * w.StepTime * 10, w.AmplitudeX * math.Sin(n)
	case WaveCross:
		return crossOffset(w, i)
	default:
		return 0, 0
	}
}

// crossOffset places enemies on four arms radiating from (centerX,
// centerY), cycling through the arms as i increases.
func crossOffset(w *WaveSpec, i int) (float64, float64) {
	arm := i % 4
	dist := float64(i/4+1) * w.Step
	if dist > w.ArmLength {
		dist = w.ArmLength
	}
	switch arm {
	case 0:
		return w.CenterX + dist, w.CenterY
	case 1:
		return w.CenterX - dist, w.CenterY
	case 2:
		return w.CenterX, w.CenterY + dist
	default:
		return w.CenterX, w.CenterY - dist
	}
}

func (s *SpawnSystem) spawnObstacle(r *ecs.Registry, o *ObstacleSpec) ecs.EntityID {
	tmpl := s.level.Templates.Obstacles[o.Template]
	y := o.YValue
	switch o.YAnchor {
	case AnchorTop:
		y = o.Margin
	case AnchorBottom:
		y = o.YValue - o.Margin
	}

	id := r.Create()
	_ = ecs.Emplace(r, id, components.Transform{X: o.X, Y: y, ScaleX: 1, ScaleY: 1})
	_ = ecs.Emplace(r, id, components.Velocity{VX: o.SpeedX, VY: o.SpeedY})
	_ = ecs.Emplace(r, id, components.Tag{Bits: uint32(components.TagObstacle)})
	if tmpl.HitboxTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildHitbox(tmpl.HitboxTemplate))
	}
	if tmpl.ColliderTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildCollider(tmpl.ColliderTemplate))
	}
	return id
}

func (s *SpawnSystem) spawnBoss(r *ecs.Registry, bossID string) ecs.EntityID {
	boss, ok := s.level.Bosses[bossID]
	if !ok {
		return ecs.Nil
	}
	scale := boss.Scale
	if scale == 0 {
		scale = 1
	}

	id := r.Create()
	_ = ecs.Emplace(r, id, components.Transform{X: boss.Spawn.X, Y: boss.Spawn.Y, ScaleX: scale, ScaleY: scale})
	_ = ecs.Emplace(r, id, components.Velocity{})
	_ = ecs.Emplace(r, id, components.Health{Current: boss.Health, Max: boss.Health})
	_ = ecs.Emplace(r, id, components.ScoreValue{V: boss.ScoreValue})
	_ = ecs.Emplace(r, id, components.Tag{Bits: uint32(components.TagEnemy) | uint32(components.TagBoss)})
	if boss.HitboxTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildHitbox(boss.HitboxTemplate))
	}
	if boss.ColliderTemplate != "" {
		_ = ecs.Emplace(r, id, s.buildCollider(boss.ColliderTemplate))
	}
	if boss.PatternID != "" {
		if p, ok := s.level.PatternTable()[boss.PatternID]; ok {
			_ = ecs.Emplace(r, id, components.Movement{
				Pattern: p.Pattern, Speed: p.Speed, Amplitude: p.Amplitude, Frequency: p.Frequency, Phase: p.Phase,
			})
		}
	}
	if boss.ShootingEnabled {
		_ = ecs.Emplace(r, id, components.EnemyShooting{
			Interval: boss.ShootInterval, Speed: boss.ShootSpeed,
			Damage: boss.ShootDamage, Lifetime: boss.ShootLifetime,
		})
	}
	return id
}
