// Package level implements the data-driven level model, JSON loader, the
// segment/trigger director state machine, and the spawn system of
// spec.md §4.3–§4.4 and §6's level JSON schema (v1).
package level

import "github.com/nebulaforge/shootercore/internal/components"

// RequiredArchetypeTypeIDs is the set spec.md §3/§6 mandates be present:
// player variants, bullet variants, enemy bullet, death fx.
var RequiredArchetypeTypeIDs = []uint16{1, 3, 4, 5, 6, 7, 8, 12, 13, 14, 15, 16}

// Meta carries client-display metadata for a level.
type Meta struct {
	BackgroundID string `json:"backgroundId"`
	MusicID      string `json:"musicId"`
	Name         string `json:"name,omitempty"`
	Author       string `json:"author,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
}

// Archetype maps a numeric typeId to client-side display metadata.
type Archetype struct {
	TypeID   uint16 `json:"typeId"`
	SpriteID string `json:"spriteId"`
	AnimID   string `json:"animId"`
	Layer    int32  `json:"layer"`
}

// PatternDef is a named Movement template, referenced by patternId from
// waves and bosses.
type PatternDef struct {
	ID        string                    `json:"id"`
	Pattern   components.MovementPattern `json:"-"`
	PatternName string                  `json:"pattern"` // "linear" | "zigzag" | "sine" | "follow_player"
	Speed     float64                   `json:"speed"`
	Amplitude float64                   `json:"amplitude"`
	Frequency float64                   `json:"frequency"`
	Phase     float64                   `json:"phase"`
}

// Point2 is a plain (x,y) pair used in JSON bodies.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle used for zones and bounds.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// HitboxTemplate configures components.Hitbox for a referencing entity.
type HitboxTemplate struct {
	W              float64 `json:"w"`
	H              float64 `json:"h"`
	OffsetX        float64 `json:"offsetX"`
	OffsetY        float64 `json:"offsetY"`
}

// ColliderTemplate configures components.Collider for a referencing entity.
type ColliderTemplate struct {
	Shape   string  `json:"shape"` // "box" | "circle" | "polygon"
	DimX    float64 `json:"dimX"`
	DimY    float64 `json:"dimY"`
	Points  []Point2 `json:"points,omitempty"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// EnemyTemplate is the stat block a wave spawn instantiates.
type EnemyTemplate struct {
	HitboxTemplate   string  `json:"hitboxTemplate"`
	ColliderTemplate string  `json:"colliderTemplate"`
	Health           float64 `json:"health"`
	Scale            float64 `json:"scale"`
	ScoreValue       int64   `json:"scoreValue"`
	ShootingEnabled  bool    `json:"shootingEnabled"`
	ShootInterval    float64 `json:"shootInterval"`
	ShootSpeed       float64 `json:"shootSpeed"`
	ShootDamage      float64 `json:"shootDamage"`
	ShootLifetime    float64 `json:"shootLifetime"`
}

// ObstacleTemplate is the shape block an obstacle spawn instantiates.
type ObstacleTemplate struct {
	HitboxTemplate   string `json:"hitboxTemplate"`
	ColliderTemplate string `json:"colliderTemplate"`
}

// Templates groups every template namespace referenced by waves/obstacles/
// bosses.
type Templates struct {
	Hitboxes  map[string]HitboxTemplate   `json:"hitboxes"`
	Colliders map[string]ColliderTemplate `json:"colliders"`
	Enemies   map[string]EnemyTemplate    `json:"enemies"`
	Obstacles map[string]ObstacleTemplate `json:"obstacles"`
}

// BossPhase fires SetBackground/SetMusic (SPEC_FULL.md §7) when its
// trigger becomes active, in addition to any director-level events.
type BossPhase struct {
	Trigger      Trigger `json:"trigger"`
	SetBackground string `json:"setBackground,omitempty"`
	SetMusic      string `json:"setMusic,omitempty"`
}

// BossDef is a boss's full stat block, keyed by bossId in LevelData.Bosses.
type BossDef struct {
	HitboxTemplate   string      `json:"hitboxTemplate"`
	ColliderTemplate string      `json:"colliderTemplate"`
	Health           float64     `json:"health"`
	Scale            float64     `json:"scale"`
	ScoreValue       int64       `json:"scoreValue"`
	Spawn            Point2      `json:"spawn"`
	PatternID        string      `json:"patternId,omitempty"`
	ShootingEnabled  bool        `json:"shootingEnabled"`
	ShootInterval    float64     `json:"shootInterval"`
	ShootSpeed       float64     `json:"shootSpeed"`
	ShootDamage      float64     `json:"shootDamage"`
	ShootLifetime    float64     `json:"shootLifetime"`
	Phases           []BossPhase `json:"phases,omitempty"`
	OnDeath          []Event     `json:"onDeath,omitempty"`
}

// TriggerKind discriminates the Trigger tagged union of spec.md §4.3.
type TriggerKind string

const (
	TriggerTime              TriggerKind = "time"
	TriggerDistance          TriggerKind = "distance"
	TriggerSpawnDead         TriggerKind = "spawn_dead"
	TriggerBossDead          TriggerKind = "boss_dead"
	TriggerEnemyCountAtMost  TriggerKind = "enemy_count_at_most"
	TriggerCheckpointReached TriggerKind = "checkpoint_reached"
	TriggerHpBelow           TriggerKind = "hp_below"
	TriggerPlayerInZone      TriggerKind = "player_in_zone"
	TriggerPlayersReady      TriggerKind = "players_ready"
	TriggerAllOf             TriggerKind = "all_of"
	TriggerAnyOf             TriggerKind = "any_of"
)

// Trigger is a flat tagged union over every trigger kind spec.md §4.3
// names; only the fields relevant to Kind are populated.
type Trigger struct {
	Kind         TriggerKind `json:"kind"`
	Time         float64     `json:"time,omitempty"`
	Distance     float64     `json:"distance,omitempty"`
	SpawnID      string      `json:"spawnId,omitempty"`
	BossID       string      `json:"bossId,omitempty"`
	Count        int         `json:"count,omitempty"`
	CheckpointID string      `json:"checkpointId,omitempty"`
	HP           float64     `json:"hp,omitempty"`
	Zone         Rect        `json:"zone,omitempty"`
	RequireAll   bool        `json:"requireAll,omitempty"`
	Children     []Trigger   `json:"triggers,omitempty"`
}

// EventKind discriminates the Event tagged union of spec.md §4.3.
type EventKind string

const (
	EventSpawnWave        EventKind = "spawn_wave"
	EventSpawnObstacle    EventKind = "spawn_obstacle"
	EventSpawnBoss        EventKind = "spawn_boss"
	EventSetScroll        EventKind = "set_scroll"
	EventSetBackground    EventKind = "set_background"
	EventSetMusic         EventKind = "set_music"
	EventSetCameraBounds  EventKind = "set_camera_bounds"
	EventSetPlayerBounds  EventKind = "set_player_bounds"
	EventClearPlayerBounds EventKind = "clear_player_bounds"
	EventGateOpen         EventKind = "gate_open"
	EventGateClose        EventKind = "gate_close"
	EventCheckpoint       EventKind = "checkpoint"
)

// WaveKind discriminates the five wave layouts of spec.md §4.4.
type WaveKind string

const (
	WaveLine     WaveKind = "line"
	WaveStagger  WaveKind = "stagger"
	WaveTriangle WaveKind = "triangle"
	WaveSerpent  WaveKind = "serpent"
	WaveCross    WaveKind = "cross"
)

// WaveSpec configures a SpawnWave event.
type WaveSpec struct {
	Kind           WaveKind `json:"kind"`
	Template       string   `json:"template"`
	PatternID      string   `json:"patternId,omitempty"`
	Count          int      `json:"count"`
	OriginX        float64  `json:"originX"`
	OriginY        float64  `json:"originY"`
	Spacing        float64  `json:"spacing,omitempty"`        // Line
	StepTime       float64  `json:"stepTime,omitempty"`       // Stagger, Serpent
	RowHeight      float64  `json:"rowHeight,omitempty"`      // Triangle
	HorizontalStep float64  `json:"horizontalStep,omitempty"` // Triangle
	AmplitudeX     float64  `json:"amplitudeX,omitempty"`     // Serpent
	ArmLength      float64  `json:"armLength,omitempty"`      // Cross
	Step           float64  `json:"step,omitempty"`           // Cross
	CenterX        float64  `json:"centerX,omitempty"`        // Cross
	CenterY        float64  `json:"centerY,omitempty"`        // Cross

	Health          *float64 `json:"health,omitempty"`
	Scale           *float64 `json:"scale,omitempty"`
	ShootingEnabled *bool    `json:"shootingEnabled,omitempty"`
}

// ObstacleYAnchor discriminates how an obstacle's y coordinate is resolved.
type ObstacleYAnchor string

const (
	AnchorTop      ObstacleYAnchor = "top"
	AnchorBottom   ObstacleYAnchor = "bottom"
	AnchorAbsolute ObstacleYAnchor = "absolute"
)

// ObstacleSpec configures a SpawnObstacle event.
type ObstacleSpec struct {
	Template string          `json:"template"`
	X        float64         `json:"x"`
	YAnchor  ObstacleYAnchor `json:"yAnchor"`
	YValue   float64         `json:"yValue"`
	Margin   float64         `json:"margin"`
	SpeedX   float64         `json:"speedX"`
	SpeedY   float64         `json:"speedY"`
}

// BossSpawnSpec configures a SpawnBoss event.
type BossSpawnSpec struct {
	BossID string `json:"bossId"`
}

// RepeatSpec re-fires an event on an interval while Count (if set)
// remains positive and/or Until (if set) is inactive.
type RepeatSpec struct {
	Interval float64  `json:"interval"`
	Count    *int     `json:"count,omitempty"`
	Until    *Trigger `json:"until,omitempty"`
}

// Event is a flat tagged union over every event kind spec.md §4.3 names.
type Event struct {
	ID      string  `json:"id"`
	Trigger Trigger `json:"trigger"`
	Kind    EventKind `json:"kind"`

	SpawnID string `json:"spawnId,omitempty"` // spawn-group override; defaults to ID

	Wave     *WaveSpec      `json:"wave,omitempty"`
	Obstacle *ObstacleSpec  `json:"obstacle,omitempty"`
	Boss     *BossSpawnSpec `json:"boss,omitempty"`

	Scroll *ScrollSettings `json:"scroll,omitempty"`

	BackgroundID string `json:"backgroundId,omitempty"`
	MusicID      string `json:"musicId,omitempty"`

	CameraBounds *Rect `json:"cameraBounds,omitempty"`
	PlayerBounds *Rect `json:"playerBounds,omitempty"`

	GateID string `json:"gateId,omitempty"`

	CheckpointID string  `json:"checkpointId,omitempty"`
	RespawnX     float64 `json:"respawnX,omitempty"`
	RespawnY     float64 `json:"respawnY,omitempty"`

	Repeat *RepeatSpec `json:"repeat,omitempty"`
}

// SpawnGroupID returns the id spawned entities are registered under for
// SpawnDead/gate resolution: SpawnID if set, else ID.
func (e Event) SpawnGroupID() string {
	if e.SpawnID != "" {
		return e.SpawnID
	}
	return e.ID
}

// ScrollKind discriminates the three scroll speed sources of spec.md §4.3.
type ScrollKind string

const (
	ScrollConstant ScrollKind = "constant"
	ScrollStopped  ScrollKind = "stopped"
	ScrollCurve    ScrollKind = "curve"
)

// Keyframe is one (time, speed) sample of a Curve scroll.
type Keyframe struct {
	T      float64 `json:"t"`
	SpeedX float64 `json:"speedX"`
}

// ScrollSettings configures the director's currentScrollSpeed function.
type ScrollSettings struct {
	Kind      ScrollKind `json:"kind"`
	SpeedX    float64    `json:"speedX,omitempty"`
	Keyframes []Keyframe `json:"keyframes,omitempty"`
}

// Segment is one contiguous phase of a level, bounded by Exit.
type Segment struct {
	Scroll ScrollSettings `json:"scroll"`
	Exit   Trigger        `json:"exit"`
	Events []Event        `json:"events"`
}

// LevelData is the in-memory model of a v1 level JSON document.
type LevelData struct {
	SchemaVersion int                 `json:"schemaVersion"`
	LevelID       int                 `json:"levelId"`
	Meta          Meta                `json:"meta"`
	Archetypes    []Archetype         `json:"archetypes"`
	Patterns      []PatternDef        `json:"patterns"`
	Templates     Templates           `json:"templates"`
	Bosses        map[string]BossDef  `json:"bosses"`
	Segments      []Segment           `json:"segments"`
}

// ArchetypeTable indexes Archetypes by TypeID for O(1) lookup.
func (l *LevelData) ArchetypeTable() map[uint16]Archetype {
	out := make(map[uint16]Archetype, len(l.Archetypes))
	for _, a := range l.Archetypes {
		out[a.TypeID] = a
	}
	return out
}

// PatternTable indexes Patterns by ID.
func (l *LevelData) PatternTable() map[string]PatternDef {
	out := make(map[string]PatternDef, len(l.Patterns))
	for _, p := range l.Patterns {
		out[p.ID] = p
	}
	return out
}

func parseMovementPattern(name string) components.MovementPattern {
	switch name {
	case "zigzag":
		return components.MovementZigzag
	case "sine":
		return components.MovementSine
	case "follow_player":
		return components.MovementFollowPlayer
	default:
		return components.MovementLinear
	}
}
