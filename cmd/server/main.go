// Command server runs one authoritative game room: a UDP listener, the
// fixed-tick simulation loop, and an admin HTTP surface for health checks,
// metrics, and room introspection.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nebulaforge/shootercore/internal/adminhttp"
	"github.com/nebulaforge/shootercore/internal/config"
	"github.com/nebulaforge/shootercore/internal/level"
	"github.com/nebulaforge/shootercore/internal/metrics"
	"github.com/nebulaforge/shootercore/internal/netio"
	"github.com/nebulaforge/shootercore/internal/protocol"
	"github.com/nebulaforge/shootercore/internal/room"
)

func main() {
	log := logrus.NewEntry(logrus.StandardLogger())
	cfg := config.Load()

	loader := level.NewLoader(cfg.LevelDir)
	lvl, err := loader.LoadLevel(1)
	if err != nil {
		log.WithError(err).Warn("no level loaded, starting rooms without a director")
		lvl = nil
	}

	manager := room.NewManager()
	roomCfg := room.NewPreset(room.DifficultyNoob)
	_, game := manager.CreateRoom(roomCfg, lvl)

	addr, err := net.ResolveUDPAddr("udp", cfg.UDPBindAddr)
	if err != nil {
		log.WithError(err).Fatal("invalid UDP bind address")
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.WithError(err).Fatal("failed to bind UDP socket")
	}
	defer conn.Close()
	if err := netio.TuneBuffers(conn, 4*1024*1024, 4*1024*1024); err != nil {
		log.WithError(err).Warn("failed to raise socket buffer sizes")
	}

	queues := netio.NewQueues(1024)
	receiver := netio.NewReceiver(conn, queues, log)
	sender := netio.NewSender(conn, 1024, log)

	game.Outbound = func(to *net.UDPAddr, mt protocol.MessageType, payload []byte, tick uint64) {
		pkt := protocol.Encode(protocol.Header{MessageType: mt, TickID: uint32(tick)}, payload)
		metrics.RecordSent(categoryLabel(mt), len(pkt))
		sender.Enqueue(netio.OutboundPacket{Addr: to, Data: pkt})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adminRouter := adminhttp.NewRouter(adminhttp.RouterConfig{Rooms: manager})
	adminServer := &http.Server{Addr: cfg.AdminAddr, Handler: adminRouter}
	go func() {
		log.WithField("addr", cfg.AdminAddr).Info("admin HTTP server listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("admin HTTP server stopped")
		}
	}()

	go func() {
		if err := receiver.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("receiver stopped unexpectedly")
		}
	}()
	go func() {
		if err := sender.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("sender stopped unexpectedly")
		}
	}()
	go reportGaugesPeriodically(ctx, manager)

	log.WithFields(logrus.Fields{
		"udpAddr":  cfg.UDPBindAddr,
		"tickRate": cfg.TickRate,
	}).Info("game room listening")

	runErr := make(chan error, 1)
	go func() { runErr <- game.Run(ctx, queues, cfg.TickRate) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutdown signal received")
	case err := <-runErr:
		if err != nil && err != context.Canceled {
			log.WithError(err).Error("game instance stopped")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = adminServer.Shutdown(shutdownCtx)
	<-runErr
}

func reportGaugesPeriodically(ctx context.Context, manager *room.Manager) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetActiveRooms(manager.RoomCount())
			metrics.SetActivePlayers(manager.ActivePlayerCount())
		}
	}
}

func categoryLabel(mt protocol.MessageType) string {
	switch protocol.CategoryOf(mt) {
	case protocol.CategoryInput:
		return "input"
	case protocol.CategoryReplication:
		return "replication"
	default:
		return "control"
	}
}
