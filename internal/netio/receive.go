package netio

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nebulaforge/shootercore/internal/protocol"
)

// InboundEvent is a parsed, filtered datagram handed from the receive
// thread to the loop thread. The receive thread never touches the
// registry; everything here is a plain value.
type InboundEvent struct {
	Addr    *net.UDPAddr
	Header  protocol.Header
	Payload []byte
}

// TimeoutEvent reports that addr has gone quiet for longer than the
// configured idle window.
type TimeoutEvent struct {
	Addr *net.UDPAddr
}

// Queues are the three bounded FIFOs spec.md §4.5 names, read by the
// loop thread each tick.
type Queues struct {
	Input   chan InboundEvent
	Control chan InboundEvent
	Timeout chan TimeoutEvent
}

// NewQueues builds bounded queues of the given capacity. A full queue
// drops the newest event rather than blocking the receive thread.
func NewQueues(capacity int) *Queues {
	return &Queues{
		Input:   make(chan InboundEvent, capacity),
		Control: make(chan InboundEvent, capacity),
		Timeout: make(chan TimeoutEvent, capacity),
	}
}

// Receiver owns the socket's read side: it blocks on ReadFromUDP, parses
// and filters, and pushes typed events into Queues.
type Receiver struct {
	Conn        *net.UDPConn
	Queues      *Queues
	Filter      *SequenceFilter
	FloodLimit  *FloodLimiter
	IdleTimeout time.Duration
	Log         *logrus.Entry

	lastSeen map[string]time.Time
}

// NewReceiver builds a Receiver over an already-bound conn.
func NewReceiver(conn *net.UDPConn, queues *Queues, log *logrus.Entry) *Receiver {
	return &Receiver{
		Conn:        conn,
		Queues:      queues,
		Filter:      NewSequenceFilter(),
		FloodLimit:  NewFloodLimiter(120, 30),
		IdleTimeout: 10 * time.Second,
		Log:         log,
		lastSeen:    make(map[string]time.Time),
	}
}

// Run blocks reading datagrams until ctx is canceled or the socket
// errors. A background goroutine sweeps for idle endpoints concurrently.
func (rv *Receiver) Run(ctx context.Context) error {
	go rv.sweepIdle(ctx)

	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = rv.Conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := rv.Conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return err
			}
		}

		rv.handleDatagram(addr, append([]byte(nil), buf[:n]...))
	}
}

func (rv *Receiver) handleDatagram(addr *net.UDPAddr, data []byte) {
	endpoint := addr.String()

	if !rv.FloodLimit.Allow(endpoint) {
		return
	}

	header, payload, err := protocol.Decode(data)
	if err != nil {
		if rv.Log != nil {
			rv.Log.WithError(err).WithField("addr", endpoint).Debug("dropping malformed packet")
		}
		return
	}

	if header.MessageType == protocol.ClientInput {
		if !rv.Filter.Accept(endpoint, header.SequenceID) {
			return
		}
	}

	rv.lastSeen[endpoint] = time.Now()

	event := InboundEvent{Addr: addr, Header: header, Payload: payload}
	var queue chan InboundEvent
	if protocol.CategoryOf(header.MessageType) == protocol.CategoryInput {
		queue = rv.Queues.Input
	} else {
		queue = rv.Queues.Control
	}

	select {
	case queue <- event:
	default:
		if rv.Log != nil {
			rv.Log.WithField("addr", endpoint).Warn("dropping event, queue full")
		}
	}
}

func (rv *Receiver) sweepIdle(ctx context.Context) {
	ticker := time.NewTicker(rv.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for endpoint, last := range rv.lastSeen {
				if now.Sub(last) < rv.IdleTimeout {
					continue
				}
				addr, err := net.ResolveUDPAddr("udp", endpoint)
				if err != nil {
					continue
				}
				delete(rv.lastSeen, endpoint)
				select {
				case rv.Queues.Timeout <- TimeoutEvent{Addr: addr}:
				default:
				}
			}
		}
	}
}
