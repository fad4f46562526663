package netio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nebulaforge/shootercore/internal/protocol"
)

func TestSequenceFilterDropsStaleAndAcceptsNewEndpoint(t *testing.T) {
	f := NewSequenceFilter()

	if !f.Accept("1.1.1.1:1", 5) {
		t.Fatalf("expected first packet from a new endpoint to be accepted")
	}
	if f.Accept("1.1.1.1:1", 5) {
		t.Fatalf("expected seq <= last to be dropped")
	}
	if f.Accept("1.1.1.1:1", 3) {
		t.Fatalf("expected lower seq to be dropped")
	}
	if !f.Accept("1.1.1.1:1", 6) {
		t.Fatalf("expected higher seq to be accepted")
	}
	if !f.Accept("2.2.2.2:1", 1) {
		t.Fatalf("expected a different endpoint to be unaffected by the first's state")
	}
}

func TestFloodLimiterCapsBurst(t *testing.T) {
	fl := NewFloodLimiter(1, 2)
	ok := 0
	for i := 0; i < 5; i++ {
		if fl.Allow("peer") {
			ok++
		}
	}
	if ok > 2 {
		t.Fatalf("expected burst of at most 2 immediate allows, got %d", ok)
	}
}

func mustListenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	return conn
}

func TestReceiverRoutesInputAndDropsCorruptPackets(t *testing.T) {
	serverConn := mustListenUDP(t)
	defer serverConn.Close()
	clientConn := mustListenUDP(t)
	defer clientConn.Close()

	queues := NewQueues(8)
	rv := NewReceiver(serverConn, queues, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rv.Run(ctx)

	payload := protocol.EncodeInput(protocol.InputPacket{PlayerID: 1})
	good := protocol.Encode(protocol.Header{MessageType: protocol.ClientInput, SequenceID: 1}, payload)
	if _, err := clientConn.WriteToUDP(good, serverConn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-queues.Input:
		if ev.Header.MessageType != protocol.ClientInput {
			t.Fatalf("unexpected message type %v", ev.Header.MessageType)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for input event")
	}

	corrupt := append([]byte(nil), good...)
	corrupt[0] ^= 0xFF
	if _, err := clientConn.WriteToUDP(corrupt, serverConn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-queues.Input:
		t.Fatalf("expected corrupt packet to be dropped, got %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSenderPreservesOrderingPerPeer(t *testing.T) {
	serverConn := mustListenUDP(t)
	defer serverConn.Close()
	clientConn := mustListenUDP(t)
	defer clientConn.Close()

	sender := NewSender(serverConn, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sender.Run(ctx)

	peer := clientConn.LocalAddr().(*net.UDPAddr)
	for i := 0; i < 3; i++ {
		payload := protocol.EncodeInput(protocol.InputPacket{PlayerID: uint32(i)})
		sender.Enqueue(OutboundPacket{Addr: peer, Data: protocol.Encode(protocol.Header{MessageType: protocol.ServerPong, SequenceID: uint16(i)}, payload)})
	}

	buf := make([]byte, 2048)
	_ = clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 3; i++ {
		n, _, err := clientConn.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		h, payload, err := protocol.Decode(buf[:n])
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		in, err := protocol.DecodeInput(payload)
		if err != nil {
			t.Fatalf("decode input %d: %v", i, err)
		}
		if h.SequenceID != uint16(i) || in.PlayerID != uint32(i) {
			t.Fatalf("expected in-order packet %d, got seq=%d playerId=%d", i, h.SequenceID, in.PlayerID)
		}
	}
}
