package level

import (
	"strconv"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
)

// DirectorEvent is a dispatched level event, handed to the spawn system and
// (for the non-spawn kinds) applied directly by the director itself.
type DirectorEvent struct {
	Event   Event
	Segment int
}

// Director drives a LevelData's segment/trigger state machine, per
// spec.md §4.3. It is ticked once per simulation frame and returns the
// events that fired this tick, in declaration order.
type Director struct {
	level *LevelData

	segmentIndex    int
	segmentTime     float64
	segmentDistance float64

	scrollSpeed float64

	spawnGroups    map[string][]ecs.EntityID // spawnId -> live entities
	bossEntities   map[string]ecs.EntityID   // bossId -> spawned entity
	bossPhase      map[string]int            // bossId -> next unfired BossDef.Phases index
	bossDeathFired map[string]bool           // bossId -> OnDeath already dispatched
	deadBosses     map[string]bool
	checkpoints    map[string]bool
	gatesOpen      map[string]bool

	fired       map[string]bool // event id -> already fired once (non-repeat)
	repeatState map[string]repeatState

	activeCameraBounds *Rect
	activePlayerBounds *Rect
	activeRespawn      *Point2

	Finished bool
}

type repeatState struct {
	nextAt float64
	firedN int
}

// NewDirector builds a Director positioned at the start of level.
func NewDirector(level *LevelData) *Director {
	d := &Director{
		level:          level,
		spawnGroups:    make(map[string][]ecs.EntityID),
		bossEntities:   make(map[string]ecs.EntityID),
		bossPhase:      make(map[string]int),
		bossDeathFired: make(map[string]bool),
		deadBosses:     make(map[string]bool),
		checkpoints:  make(map[string]bool),
		gatesOpen:    make(map[string]bool),
		fired:        make(map[string]bool),
		repeatState:  make(map[string]repeatState),
	}
	if len(level.Segments) > 0 {
		d.scrollSpeed = initialScrollSpeed(level.Segments[0].Scroll)
	}
	return d
}

func initialScrollSpeed(s ScrollSettings) float64 {
	switch s.Kind {
	case ScrollStopped:
		return 0
	case ScrollCurve:
		if len(s.Keyframes) > 0 {
			return s.Keyframes[0].SpeedX
		}
		return 0
	default:
		return s.SpeedX
	}
}

// ScrollSpeed returns the current segment's horizontal scroll speed.
func (d *Director) ScrollSpeed() float64 {
	return d.scrollSpeed
}

// RegisterSpawn records entity as a live member of spawnId's group, for
// SpawnDead trigger evaluation and gate resolution.
func (d *Director) RegisterSpawn(spawnID string, ids ...ecs.EntityID) {
	d.spawnGroups[spawnID] = append(d.spawnGroups[spawnID], ids...)
}

// NoteBossDead marks bossID as dead for BossDead/HpBelow-adjacent triggers.
func (d *Director) NoteBossDead(bossID string) {
	d.deadBosses[bossID] = true
}

// RegisterBoss records id as the entity spawned for bossID, so HpBelow and
// BossDead triggers can resolve the boss by name instead of guessing from
// live player state.
func (d *Director) RegisterBoss(bossID string, id ecs.EntityID) {
	d.bossEntities[bossID] = id
}

// NoteDead marks any tracked boss among ids as dead, per spec.md §4.3's
// BossDead trigger. The caller must invoke this before destroying ids,
// since a destroyed entity's components are gone.
func (d *Director) NoteDead(ids []ecs.EntityID) {
	if len(d.bossEntities) == 0 {
		return
	}
	dead := make(map[ecs.EntityID]bool, len(ids))
	for _, id := range ids {
		dead[id] = true
	}
	for bossID, id := range d.bossEntities {
		if dead[id] {
			d.NoteBossDead(bossID)
		}
	}
}

// bossHealth looks up the live Health.Current of the entity registered
// under bossID, for the HpBelow trigger. ok is false if the boss was never
// spawned or has already been destroyed.
func (d *Director) bossHealth(r *ecs.Registry, bossID string) (hp float64, ok bool) {
	id, tracked := d.bossEntities[bossID]
	if !tracked {
		return 0, false
	}
	health, err := ecs.Get[components.Health](r, id)
	if err != nil {
		return 0, false
	}
	return health.Current, true
}

// pruneGroup removes dead entities from tracking (caller supplies liveness).
func (d *Director) pruneGroup(r *ecs.Registry, spawnID string) []ecs.EntityID {
	ids := d.spawnGroups[spawnID]
	live := ids[:0]
	for _, id := range ids {
		if r.IsAlive(id) {
			live = append(live, id)
		}
	}
	d.spawnGroups[spawnID] = live
	return live
}

// Tick advances dt seconds of level time and returns every event that
// fired: the current segment's events, then boss OnDeath and boss-phase
// events. A segment's Exit trigger only advances the segment and
// dispatches nothing itself.
func (d *Director) Tick(r *ecs.Registry, dt float64, playersReady, allPlayersPresent bool, minPlayerHP float64) []DirectorEvent {
	if d.Finished || d.segmentIndex >= len(d.level.Segments) {
		d.Finished = true
		return nil
	}
	seg := d.level.Segments[d.segmentIndex]
	d.segmentTime += dt
	d.segmentDistance += d.scrollSpeed * dt
	d.scrollSpeed = d.currentScrollSpeed(seg.Scroll)

	ctx := triggerContext{
		director:          d,
		registry:          r,
		playersReady:      playersReady,
		allPlayersPresent: allPlayersPresent,
		minPlayerHP:       minPlayerHP,
	}

	var fired []DirectorEvent
	for _, ev := range seg.Events {
		if d.dispatchIfReady(ctx, ev) {
			fired = append(fired, DirectorEvent{Event: ev, Segment: d.segmentIndex})
		}
	}
	fired = append(fired, d.tickBossDeaths()...)
	fired = append(fired, d.tickBossPhases(ctx)...)

	if ctx.evalTrigger(seg.Exit) {
		d.segmentIndex++
		d.segmentTime = 0
		d.segmentDistance = 0
		if d.segmentIndex < len(d.level.Segments) {
			d.scrollSpeed = initialScrollSpeed(d.level.Segments[d.segmentIndex].Scroll)
		} else {
			d.Finished = true
		}
	}

	return fired
}

// tickBossDeaths fires each newly-dead tracked boss's OnDeath events
// exactly once, per spec.md §4.3's "on boss death, onDeath events are
// fired once."
func (d *Director) tickBossDeaths() []DirectorEvent {
	var fired []DirectorEvent
	for bossID, dead := range d.deadBosses {
		if !dead || d.bossDeathFired[bossID] {
			continue
		}
		d.bossDeathFired[bossID] = true
		boss, ok := d.level.Bosses[bossID]
		if !ok {
			continue
		}
		for _, ev := range boss.OnDeath {
			d.apply(ev)
			fired = append(fired, DirectorEvent{Event: ev, Segment: d.segmentIndex})
		}
	}
	return fired
}

// tickBossPhases advances each tracked boss's BossDef.Phases pointer,
// firing every phase (in order, at most once each) whose Trigger has
// become active, per SPEC_FULL.md §7's boss-phase/background-music
// wiring. Phases are evaluated in declaration order and never skipped
// backward, matching dispatchIfReady's non-repeat semantics.
func (d *Director) tickBossPhases(ctx triggerContext) []DirectorEvent {
	var fired []DirectorEvent
	for bossID, id := range d.bossEntities {
		if !ctx.registry.IsAlive(id) {
			continue
		}
		boss, ok := d.level.Bosses[bossID]
		if !ok {
			continue
		}
		idx := d.bossPhase[bossID]
		for idx < len(boss.Phases) && ctx.evalTrigger(boss.Phases[idx].Trigger) {
			fired = append(fired, d.bossPhaseEvents(bossID, idx, boss.Phases[idx])...)
			idx++
		}
		d.bossPhase[bossID] = idx
	}
	return fired
}

func (d *Director) bossPhaseEvents(bossID string, idx int, phase BossPhase) []DirectorEvent {
	var out []DirectorEvent
	base := Event{ID: bossID + "/phase/" + strconv.Itoa(idx)}
	if phase.SetBackground != "" {
		ev := base
		ev.Kind = EventSetBackground
		ev.BackgroundID = phase.SetBackground
		out = append(out, DirectorEvent{Event: ev, Segment: d.segmentIndex})
	}
	if phase.SetMusic != "" {
		ev := base
		ev.Kind = EventSetMusic
		ev.MusicID = phase.SetMusic
		out = append(out, DirectorEvent{Event: ev, Segment: d.segmentIndex})
	}
	return out
}

func (d *Director) currentScrollSpeed(s ScrollSettings) float64 {
	switch s.Kind {
	case ScrollStopped:
		return 0
	case ScrollConstant:
		return s.SpeedX
	case ScrollCurve:
		return evalCurve(s.Keyframes, d.segmentTime)
	default:
		return 0
	}
}

func evalCurve(keys []Keyframe, t float64) float64 {
	if len(keys) == 0 {
		return 0
	}
	if t <= keys[0].T {
		return keys[0].SpeedX
	}
	last := keys[len(keys)-1]
	if t >= last.T {
		return last.SpeedX
	}
	for i := 1; i < len(keys); i++ {
		if t <= keys[i].T {
			a, b := keys[i-1], keys[i]
			if b.T == a.T {
				return b.SpeedX
			}
			frac := (t - a.T) / (b.T - a.T)
			return a.SpeedX + frac*(b.SpeedX-a.SpeedX)
		}
	}
	return last.SpeedX
}

func (d *Director) dispatchIfReady(ctx triggerContext, ev Event) bool {
	if ev.Repeat != nil {
		return d.dispatchRepeating(ctx, ev)
	}
	if d.fired[ev.ID] {
		return false
	}
	if !ctx.evalTrigger(ev.Trigger) {
		return false
	}
	d.fired[ev.ID] = true
	d.apply(ev)
	return true
}

func (d *Director) dispatchRepeating(ctx triggerContext, ev Event) bool {
	st := d.repeatState[ev.ID]
	if !d.fired[ev.ID] {
		if !ctx.evalTrigger(ev.Trigger) {
			return false
		}
		d.fired[ev.ID] = true
		st.nextAt = d.segmentTime
	}
	if ev.Repeat.Until != nil && ctx.evalTrigger(*ev.Repeat.Until) {
		return false
	}
	if ev.Repeat.Count != nil && st.firedN >= *ev.Repeat.Count {
		return false
	}
	if d.segmentTime < st.nextAt {
		return false
	}
	st.nextAt = d.segmentTime + ev.Repeat.Interval
	st.firedN++
	d.repeatState[ev.ID] = st
	d.apply(ev)
	return true
}

// apply handles the director-owned side effects of an event (scroll/
// background/music/bounds/gate/checkpoint). SpawnWave/Obstacle/Boss are
// left to the caller's spawn system, which reads the returned
// DirectorEvent.
func (d *Director) apply(ev Event) {
	switch ev.Kind {
	case EventSetScroll:
		if ev.Scroll != nil {
			d.scrollSpeed = initialScrollSpeed(*ev.Scroll)
		}
	case EventSetCameraBounds:
		d.activeCameraBounds = ev.CameraBounds
	case EventSetPlayerBounds:
		d.activePlayerBounds = ev.PlayerBounds
	case EventClearPlayerBounds:
		d.activePlayerBounds = nil
	case EventGateOpen:
		d.gatesOpen[ev.GateID] = true
	case EventGateClose:
		d.gatesOpen[ev.GateID] = false
	case EventCheckpoint:
		d.checkpoints[ev.CheckpointID] = true
		d.activeRespawn = &Point2{X: ev.RespawnX, Y: ev.RespawnY}
	}
}

// ActiveRespawnPoint returns the respawn point of the last Checkpoint
// event applied, for sim.RespawnSystem, or ok=false if no checkpoint has
// been reached yet.
func (d *Director) ActiveRespawnPoint() (Point2, bool) {
	if d.activeRespawn == nil {
		return Point2{}, false
	}
	return *d.activeRespawn, true
}

// ActivePlayerBounds returns the director's current player-bounds override,
// for sim.PlayerBoundsSystem, or nil if none is active.
func (d *Director) ActivePlayerBounds() *components.Boundary {
	if d.activePlayerBounds == nil {
		return nil
	}
	b := components.Boundary{
		MinX: d.activePlayerBounds.MinX, MinY: d.activePlayerBounds.MinY,
		MaxX: d.activePlayerBounds.MaxX, MaxY: d.activePlayerBounds.MaxY,
	}
	return &b
}

type triggerContext struct {
	director          *Director
	registry          *ecs.Registry
	playersReady      bool
	allPlayersPresent bool
	minPlayerHP       float64
}

func (c triggerContext) evalTrigger(t Trigger) bool {
	d := c.director
	switch t.Kind {
	case TriggerTime:
		return d.segmentTime >= t.Time
	case TriggerDistance:
		return d.segmentDistance >= t.Distance
	case TriggerSpawnDead:
		return len(d.pruneGroup(c.registry, t.SpawnID)) == 0
	case TriggerBossDead:
		return d.deadBosses[t.BossID]
	case TriggerEnemyCountAtMost:
		return c.countEnemies() <= t.Count
	case TriggerCheckpointReached:
		return d.checkpoints[t.CheckpointID]
	case TriggerHpBelow:
		hp, ok := d.bossHealth(c.registry, t.BossID)
		return ok && hp <= t.HP
	case TriggerPlayerInZone:
		return c.playerInZone(t.Zone)
	case TriggerPlayersReady:
		return c.playersReady
	case TriggerAllOf:
		for _, child := range t.Children {
			if !c.evalTrigger(child) {
				return false
			}
		}
		return true
	case TriggerAnyOf:
		for _, child := range t.Children {
			if c.evalTrigger(child) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (c triggerContext) countEnemies() int {
	n := 0
	view := ecs.NewView1[components.Tag](c.registry)
	for {
		id, ok := view.Next()
		if !ok {
			return n
		}
		if view.Get(id).Has(components.TagEnemy) {
			n++
		}
	}
}

func (c triggerContext) playerInZone(zone Rect) bool {
	view := ecs.NewView2[components.Transform, components.Tag](c.registry)
	for {
		id, ok := view.Next()
		if !ok {
			return false
		}
		transform, tag := view.Get(id)
		if !tag.Has(components.TagPlayer) {
			continue
		}
		if transform.X >= zone.MinX && transform.X <= zone.MaxX && transform.Y >= zone.MinY && transform.Y <= zone.MaxY {
			return true
		}
	}
}
