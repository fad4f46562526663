package netio

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
)

// OutboundPacket is one datagram queued by the loop thread for transmit.
// Packets for the same peer are delivered to sendto in enqueue order,
// preserving per-peer ordering within a tick (spec.md §4.5).
type OutboundPacket struct {
	Addr *net.UDPAddr
	Data []byte
}

// Sender owns the socket's write side: it drains an outbound queue and
// calls sendto, one goroutine per conn so peer ordering is preserved.
type Sender struct {
	Conn    *net.UDPConn
	Outbox  chan OutboundPacket
	Log     *logrus.Entry
}

// NewSender builds a Sender with a bounded outbound queue.
func NewSender(conn *net.UDPConn, capacity int, log *logrus.Entry) *Sender {
	return &Sender{Conn: conn, Outbox: make(chan OutboundPacket, capacity), Log: log}
}

// Enqueue queues a packet for transmit, dropping it if the outbox is
// full rather than blocking the loop thread.
func (s *Sender) Enqueue(pkt OutboundPacket) bool {
	select {
	case s.Outbox <- pkt:
		return true
	default:
		if s.Log != nil {
			s.Log.WithField("addr", pkt.Addr.String()).Warn("dropping outbound packet, outbox full")
		}
		return false
	}
}

// Run drains Outbox until ctx is canceled, writing each packet with
// WriteToUDP.
func (s *Sender) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-s.Outbox:
			if _, err := s.Conn.WriteToUDP(pkt.Data, pkt.Addr); err != nil {
				if s.Log != nil {
					s.Log.WithError(err).WithField("addr", pkt.Addr.String()).Debug("sendto failed")
				}
			}
		}
	}
}
