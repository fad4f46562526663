package room

import (
	"context"
	"hash/crc32"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/level"
	"github.com/nebulaforge/shootercore/internal/loop"
	"github.com/nebulaforge/shootercore/internal/netio"
	"github.com/nebulaforge/shootercore/internal/protocol"
	"github.com/nebulaforge/shootercore/internal/replication"
	"github.com/nebulaforge/shootercore/internal/rollback"
	"github.com/nebulaforge/shootercore/internal/sim"
)

// State is one of the room lifecycle states of spec.md §4.5.
type State uint8

const (
	Lobby State = iota
	Countdown
	Playing
	Finished
)

// CountdownDuration is the fixed countdown length before GameStart.
const CountdownDuration = 3 * time.Second

// OutboundFunc hands a GameInstance a way to queue a packet for one
// peer, decoupling it from a concrete netio.Sender for testability. tick
// is the simulation tick the packet was produced on, carried in the wire
// header's TickID so clients can correlate a Snapshot/SnapshotDelta (and
// echo it back in a later ClientChecksum) to the tick it describes.
type OutboundFunc func(addr *net.UDPAddr, msgType protocol.MessageType, payload []byte, tick uint64)

// GameInstance owns one room's registry, level state, sessions, and
// lifecycle, per spec.md §3's RoomConfig/GameInstance description.
type GameInstance struct {
	mu sync.Mutex

	Config   RoomConfig
	Registry *ecs.Registry
	Bus      *sim.Bus
	Weapons  map[components.WeaponSlot]sim.WeaponStats

	Director    *level.Director
	SpawnSystem *level.SpawnSystem
	Level       *level.LevelData

	Replication *replication.Manager
	Rollback    *rollback.Ring
	Desync      *rollback.DesyncDetector

	State              State
	countdownRemaining time.Duration
	nextCountdownTick  int

	sessions     map[uint32]*ClientSession
	byEndpoint   map[string]uint32
	nextPlayerID uint32

	tick uint64

	Outbound OutboundFunc
}

// NewGameInstance builds a room in the Lobby state.
func NewGameInstance(cfg RoomConfig, lvl *level.LevelData) *GameInstance {
	g := &GameInstance{
		Config:       cfg,
		Registry:     ecs.NewRegistry(),
		Bus:          sim.NewBus(),
		Weapons:      defaultWeapons(cfg),
		Replication:  replication.NewManager(),
		Rollback:     rollback.NewRing(rollback.DefaultCapacity),
		State:        Lobby,
		sessions:     make(map[uint32]*ClientSession),
		byEndpoint:   make(map[string]uint32),
		nextPlayerID: 1,
	}
	if lvl != nil {
		g.Level = lvl
		g.Director = level.NewDirector(lvl)
		g.SpawnSystem = level.NewSpawnSystem(lvl)
	}
	sim.RegisterScoreSystem(g.Bus, sim.ScoreMultiplier(cfg.ScoreMultiplier))
	g.Desync = rollback.NewDesyncDetector(rollback.DefaultChecksumInterval, rollback.DefaultTimeoutThreshold, nil)
	return g
}

func defaultWeapons(cfg RoomConfig) map[components.WeaponSlot]sim.WeaponStats {
	return map[components.WeaponSlot]sim.WeaponStats{
		components.WeaponPrimary:   {MissileSpeed: 12 * cfg.PlayerSpeedMultiplier, MissileLifetime: 2, MissileDamage: 5},
		components.WeaponSecondary: {MissileSpeed: 8 * cfg.PlayerSpeedMultiplier, MissileLifetime: 3, MissileDamage: 12},
	}
}

// Join admits a new player while in Lobby, creating their entity and
// session. The first joiner is marked host, per spec.md §4.5's
// "host issues ForceStart".
func (g *GameInstance) Join(addr *net.UDPAddr) (*ClientSession, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.State != Lobby {
		return nil, false
	}
	if _, exists := g.byEndpoint[addr.String()]; exists {
		return nil, false
	}

	playerID := g.nextPlayerID
	g.nextPlayerID++

	id := g.Registry.Create()
	_ = ecs.Emplace(g.Registry, id, components.Transform{ScaleX: 1, ScaleY: 1})
	_ = ecs.Emplace(g.Registry, id, components.Health{Current: float64(g.Config.PlayerLives), Max: float64(g.Config.PlayerLives)})
	_ = ecs.Emplace(g.Registry, id, components.Tag{Bits: uint32(components.TagPlayer)})
	_ = ecs.Emplace(g.Registry, id, components.Score{})

	session := &ClientSession{PlayerID: playerID, Addr: addr, Entity: id, Host: len(g.sessions) == 0}
	g.sessions[playerID] = session
	g.byEndpoint[addr.String()] = playerID
	g.Desync.Track(playerID, g.tick)
	return session, true
}

// SetReady marks a player ready and, once every joined player is ready,
// transitions Lobby -> Countdown and returns true (the caller broadcasts
// AllReady on that transition).
func (g *GameInstance) SetReady(playerID uint32) (enteredCountdown bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[playerID]
	if !ok || g.State != Lobby {
		return false
	}
	session.Ready = true

	if !g.allReadyLocked() {
		return false
	}
	g.enterCountdownLocked()
	return true
}

// ForceStart lets the host skip the ready quorum, per spec.md §4.5.
func (g *GameInstance) ForceStart(playerID uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	session, ok := g.sessions[playerID]
	if !ok || !session.Host || g.State != Lobby {
		return false
	}
	g.enterCountdownLocked()
	return true
}

// enterCountdownLocked transitions Lobby -> Countdown and broadcasts the
// first CountdownTick{3} immediately, per spec.md scenario S1's "three
// CountdownTick{3,2,1} one second apart" starting right after AllReady.
func (g *GameInstance) enterCountdownLocked() {
	g.State = Countdown
	g.countdownRemaining = CountdownDuration
	g.nextCountdownTick = int(CountdownDuration / time.Second)
	g.broadcastCountdownLocked(g.nextCountdownTick)
}

func (g *GameInstance) allReadyLocked() bool {
	if len(g.sessions) == 0 {
		return false
	}
	for _, s := range g.sessions {
		if !s.Ready {
			return false
		}
	}
	return true
}

// ApplyInput routes a decoded input packet to the owning player's entity,
// dropping it if the endpoint is unjoined or not Playing.
func (g *GameInstance) ApplyInput(addr *net.UDPAddr, in protocol.InputPacket, seq uint32) {
	g.mu.Lock()
	playerID, ok := g.byEndpoint[addr.String()]
	if !ok || g.State != Playing {
		g.mu.Unlock()
		return
	}
	session := g.sessions[playerID]
	g.mu.Unlock()

	sim.PlayerInputSystem(g.Registry, sim.InputEvent{
		Player: session.Entity, SequenceID: seq, Flags: in.Flags,
		X: in.X, Y: in.Y, Angle: in.Angle,
	}, sim.InputSystemConfig{PlayerSpeed: 5 * g.Config.PlayerSpeedMultiplier, Weapons: g.Weapons})
}

// Tick advances one fixed step, dispatching to the lifecycle state's own
// handler. It is the loop thread's single entry point per iteration.
func (g *GameInstance) Tick(dt time.Duration) {
	g.mu.Lock()
	state := g.State
	g.mu.Unlock()

	switch state {
	case Countdown:
		g.tickCountdown(dt)
	case Playing:
		g.tickPlaying(dt)
	}
	g.tick++
}

func (g *GameInstance) tickCountdown(dt time.Duration) {
	g.mu.Lock()
	g.countdownRemaining -= dt
	remainingWhole := int(g.countdownRemaining / time.Second)
	done := g.countdownRemaining <= 0
	if !done && remainingWhole < g.nextCountdownTick {
		g.nextCountdownTick = remainingWhole
		g.broadcastCountdownLocked(remainingWhole)
	}
	if done {
		g.State = Playing
	}
	g.mu.Unlock()

	if done {
		g.broadcastGameStart()
	}
}

func (g *GameInstance) broadcastCountdownLocked(n int) {
	if g.Outbound == nil {
		return
	}
	for _, s := range g.sessions {
		g.Outbound(s.Addr, protocol.CountdownTick, []byte{byte(n)}, g.tick)
	}
}

func (g *GameInstance) broadcastGameStart() {
	if g.Outbound == nil {
		return
	}
	for _, s := range g.liveSessions() {
		g.Outbound(s.Addr, protocol.GameStart, nil, g.tick)
	}
}

func (g *GameInstance) tickPlaying(dt time.Duration) {
	secs := dt.Seconds()
	r := g.Registry

	sim.MovementSystem(r, secs)
	sim.MonsterMovementSystem(r, secs)
	sim.EnemyShootingSystem(r, secs)
	pairs := sim.CollisionSystem(r)
	sim.DamageSystem(r, g.Bus, pairs, g.Config.FriendlyFire)

	var dead []ecs.EntityID
	view := ecs.NewView2[components.Health, components.Tag](r)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		health, tag := view.Get(id)
		if health.Current > 0 {
			continue
		}
		if tag.Has(components.TagPlayer) {
			sim.KillPlayer(r, id)
			continue
		}
		dead = append(dead, id)
	}
	if g.Director != nil {
		g.Director.NoteDead(dead)
	}
	sim.DestructionSystem(r, g.Bus, dead)
	sim.RespawnSystem(r, secs, g.respawnPoint())
	sim.BoundarySystem(r)

	if g.Director != nil {
		fired := g.Director.Tick(r, secs, g.allPlayersReadyForTriggers(), true, g.minPlayerHP())
		for _, de := range fired {
			if g.SpawnSystem != nil {
				g.SpawnSystem.Apply(r, g.Director, de)
			}
		}
	}

	g.replicateTick(r)
	g.Desync.CheckTimeouts(g.tick)

	if g.checkFinishedLocked() {
		g.mu.Lock()
		g.State = Finished
		g.mu.Unlock()
	}
}

// respawnPoint reports the level's last-reached checkpoint respawn point,
// or the origin if none has been reached yet (or the room has no level).
func (g *GameInstance) respawnPoint() sim.RespawnPoint {
	if g.Director == nil {
		return sim.RespawnPoint{}
	}
	if p, ok := g.Director.ActiveRespawnPoint(); ok {
		return sim.RespawnPoint{X: p.X, Y: p.Y}
	}
	return sim.RespawnPoint{}
}

// liveEntityIDs lists every entity with a Transform, the field every
// networked archetype (player, enemy, missile, obstacle, boss) carries,
// for replication.Manager.BuildTick and rollback.Ring.Capture.
func (g *GameInstance) liveEntityIDs(r *ecs.Registry) []ecs.EntityID {
	var ids []ecs.EntityID
	view := ecs.NewView1[components.Transform](r)
	for {
		id, ok := view.Next()
		if !ok {
			return ids
		}
		ids = append(ids, id)
	}
}

// replicateTick builds this tick's snapshot payloads and fans them out to
// every joined session, and captures the same tick's state into the
// rollback ring, per spec.md §4.6/§4.7.
func (g *GameInstance) replicateTick(r *ecs.Registry) {
	liveIDs := g.liveEntityIDs(r)
	forceFull := replication.ShouldForceFull(g.tick)

	payloads := g.Replication.BuildTick(r, liveIDs, forceFull)
	g.Rollback.Capture(r, g.tick, liveIDs, replication.SnapshotOf)

	if len(payloads) == 0 || g.Outbound == nil {
		return
	}
	msgType := protocol.SnapshotDelta
	if forceFull {
		msgType = protocol.Snapshot
	}
	for _, s := range g.liveSessions() {
		for _, payload := range payloads {
			g.Outbound(s.Addr, msgType, payload, g.tick)
		}
	}
}

func (g *GameInstance) liveSessions() []*ClientSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	sessions := make([]*ClientSession, 0, len(g.sessions))
	for _, s := range g.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// checksumAtTick recomputes the authoritative CRC32 over the rollback
// ring's captured state for tick, for comparison against a client-reported
// ClientChecksum, per spec.md §4.7. Returns 0 if tick has already been
// evicted from the ring.
func (g *GameInstance) checksumAtTick(tick uint64) uint32 {
	states, ok := g.Rollback.Lookup(tick)
	if !ok {
		return 0
	}
	return crc32.ChecksumIEEE(protocol.EncodeSnapshot(states))
}

func (g *GameInstance) allPlayersReadyForTriggers() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allReadyLocked()
}

func (g *GameInstance) minPlayerHP() float64 {
	min := -1.0
	view := ecs.NewView2[components.Health, components.Tag](g.Registry)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		health, tag := view.Get(id)
		if !tag.Has(components.TagPlayer) {
			continue
		}
		if min < 0 || health.Current < min {
			min = health.Current
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// checkFinishedLocked reports all-players-dead or level-finished, per
// spec.md §4.5's Playing -> Finished transition.
func (g *GameInstance) checkFinishedLocked() bool {
	if g.Director != nil && g.Director.Finished {
		return true
	}
	anyAlive := false
	view := ecs.NewView2[components.Health, components.Tag](g.Registry)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		health, tag := view.Get(id)
		if tag.Has(components.TagPlayer) && health.Current > 0 {
			anyAlive = true
		}
	}
	return !anyAlive && len(g.sessions) > 0
}

// Run drives the loop thread of spec.md §4.5's three-thread concurrency
// model, in an errgroup with a goroutine that stops the loop when ctx is
// canceled; the receive and send threads are run by the caller on the same
// queues. The loop thread is the registry's only writer; Run drains
// queues.Input/Control into the loop tick and returns when ctx is canceled
// or a goroutine errors.
func (g *GameInstance) Run(ctx context.Context, queues *netio.Queues, tickRate int) error {
	eg, ctx := errgroup.WithContext(ctx)

	lp := loop.New(tickRate, func(tickNum uint64, dt time.Duration) {
		g.drainQueues(queues)
		g.Tick(dt)
	})

	eg.Go(func() error {
		lp.Run()
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		lp.Stop()
		return ctx.Err()
	})

	return eg.Wait()
}

func (g *GameInstance) drainQueues(queues *netio.Queues) {
	for {
		select {
		case ev := <-queues.Input:
			in, err := protocol.DecodeInput(ev.Payload)
			if err == nil {
				g.ApplyInput(ev.Addr, in, uint32(ev.Header.SequenceID))
			}
		default:
			goto drainControl
		}
	}
drainControl:
	for {
		select {
		case ev := <-queues.Control:
			g.handleControl(ev)
		default:
			return
		}
	}
}

func (g *GameInstance) handleControl(ev netio.InboundEvent) {
	switch ev.Header.MessageType {
	case protocol.ClientJoin:
		if session, ok := g.Join(ev.Addr); ok && g.Outbound != nil {
			g.Outbound(ev.Addr, protocol.ServerJoinAccept, nil, g.tick)
			_ = session
		} else if g.Outbound != nil {
			g.Outbound(ev.Addr, protocol.ServerJoinDeny, nil, g.tick)
		}
	case protocol.ClientReady:
		g.mu.Lock()
		playerID, ok := g.byEndpoint[ev.Addr.String()]
		g.mu.Unlock()
		if !ok {
			return
		}
		if g.SetReady(playerID) && g.Outbound != nil {
			for _, s := range g.liveSessions() {
				g.Outbound(s.Addr, protocol.AllReady, nil, g.tick)
			}
		}
	case protocol.ClientChecksum:
		g.mu.Lock()
		playerID, ok := g.byEndpoint[ev.Addr.String()]
		g.mu.Unlock()
		if !ok {
			return
		}
		clientChecksum, err := protocol.DecodeChecksum(ev.Payload)
		if err != nil {
			return
		}
		tick := uint64(ev.Header.TickID)
		g.Desync.ReportChecksum(playerID, tick, clientChecksum, g.checksumAtTick(tick))
	}
}
