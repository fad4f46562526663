package room

import (
	"net"
	"testing"
	"time"

	"github.com/nebulaforge/shootercore/internal/components"
	"github.com/nebulaforge/shootercore/internal/ecs"
	"github.com/nebulaforge/shootercore/internal/netio"
	"github.com/nebulaforge/shootercore/internal/protocol"
)

type outboundCall struct {
	addr string
	mt   protocol.MessageType
}

func mustAddr(t *testing.T, s string) *net.UDPAddr {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		t.Fatalf("ResolveUDPAddr(%q): %v", s, err)
	}
	return addr
}

// TestJoinReadyStart is spec.md scenario S1.
func TestJoinReadyStart(t *testing.T) {
	g := NewGameInstance(NewPreset(DifficultyNoob), nil)

	var calls []outboundCall
	g.Outbound = func(addr *net.UDPAddr, mt protocol.MessageType, payload []byte, tick uint64) {
		calls = append(calls, outboundCall{addr: addr.String(), mt: mt})
	}

	addr1 := mustAddr(t, "127.0.0.1:1111")
	addr2 := mustAddr(t, "127.0.0.1:2222")

	s1, ok := g.Join(addr1)
	if !ok {
		t.Fatalf("expected first join to succeed")
	}
	s2, ok := g.Join(addr2)
	if !ok {
		t.Fatalf("expected second join to succeed")
	}
	if !s1.Host || s2.Host {
		t.Fatalf("expected only the first joiner to be host")
	}

	g.handleControl(netio.InboundEvent{Addr: addr1, Header: protocol.Header{MessageType: protocol.ClientReady}})
	if g.State != Lobby {
		t.Fatalf("expected Lobby while waiting on the second player, got %v", g.State)
	}
	g.handleControl(netio.InboundEvent{Addr: addr2, Header: protocol.Header{MessageType: protocol.ClientReady}})
	if g.State != Countdown {
		t.Fatalf("expected Countdown once both players are ready, got %v", g.State)
	}

	g.Tick(time.Second)
	g.Tick(time.Second)
	g.Tick(time.Second)

	if g.State != Playing {
		t.Fatalf("expected Playing after the countdown elapses, got %v", g.State)
	}

	var allReady, countdownTicks, gameStarts int
	for _, c := range calls {
		switch c.mt {
		case protocol.AllReady:
			allReady++
		case protocol.CountdownTick:
			countdownTicks++
		case protocol.GameStart:
			gameStarts++
		}
	}

	if allReady != 2 {
		t.Fatalf("expected AllReady broadcast to both sessions, got %d", allReady)
	}
	if countdownTicks != 3*2 {
		t.Fatalf("expected 3 countdown ticks broadcast to 2 sessions (=6 calls), got %d", countdownTicks)
	}
	if gameStarts != 2 {
		t.Fatalf("expected GameStart broadcast to both sessions, got %d", gameStarts)
	}

	playerCount := 0
	view := ecs.NewView1[components.Tag](g.Registry)
	for {
		id, ok := view.Next()
		if !ok {
			break
		}
		if view.Get(id).Has(components.TagPlayer) {
			playerCount++
		}
	}
	if playerCount != 2 {
		t.Fatalf("expected two player entities present, got %d", playerCount)
	}
}

func TestJoinRejectsDuplicateEndpointAndNonLobbyState(t *testing.T) {
	g := NewGameInstance(NewPreset(DifficultyNoob), nil)
	addr := mustAddr(t, "127.0.0.1:3333")

	if _, ok := g.Join(addr); !ok {
		t.Fatalf("expected first join to succeed")
	}
	if _, ok := g.Join(addr); ok {
		t.Fatalf("expected duplicate endpoint join to be rejected")
	}

	g.State = Playing
	if _, ok := g.Join(mustAddr(t, "127.0.0.1:4444")); ok {
		t.Fatalf("expected join to be rejected once the room is no longer in Lobby")
	}
}

func TestForceStartRequiresHost(t *testing.T) {
	g := NewGameInstance(NewPreset(DifficultyNoob), nil)
	addr1 := mustAddr(t, "127.0.0.1:5555")
	addr2 := mustAddr(t, "127.0.0.1:6666")

	s1, _ := g.Join(addr1)
	s2, _ := g.Join(addr2)

	if g.ForceStart(s2.PlayerID) {
		t.Fatalf("expected non-host ForceStart to be rejected")
	}
	if g.State != Lobby {
		t.Fatalf("expected Lobby unaffected by rejected ForceStart")
	}
	if !g.ForceStart(s1.PlayerID) {
		t.Fatalf("expected host ForceStart to succeed")
	}
	if g.State != Countdown {
		t.Fatalf("expected Countdown after host ForceStart, got %v", g.State)
	}
}

func TestApplyInputIgnoredOutsidePlayingState(t *testing.T) {
	g := NewGameInstance(NewPreset(DifficultyNoob), nil)
	addr := mustAddr(t, "127.0.0.1:7777")
	session, _ := g.Join(addr)

	g.ApplyInput(addr, protocol.InputPacket{PlayerID: session.PlayerID, Flags: components.InputMoveRight}, 1)

	if ecs.Has[components.PlayerInput](g.Registry, session.Entity) {
		t.Fatalf("expected input dropped while the room is still in Lobby")
	}
}

func TestCheckFinishedWhenAllPlayersDead(t *testing.T) {
	g := NewGameInstance(NewPreset(DifficultyNoob), nil)
	addr := mustAddr(t, "127.0.0.1:8888")
	session, _ := g.Join(addr)

	health, _ := ecs.Get[components.Health](g.Registry, session.Entity)
	health.Current = 0
	_ = ecs.Emplace(g.Registry, session.Entity, health)

	if !g.checkFinishedLocked() {
		t.Fatalf("expected the room to be finished once every player is dead")
	}
}
