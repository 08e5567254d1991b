package game

import (
	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// WallsBridge - мост слоя стен, устроен так же, как BlocksBridge
type WallsBridge struct {
	walls  *wall.Walls
	sender Sender
	events world.Emitter
	errs   internalReporter
	logger *logging.Logger

	breakingBy map[network.ConnID]vec.Vec2
}

// NewWallsBridge создаёт мост слоя стен
func NewWallsBridge(walls *wall.Walls, sender Sender, events world.Emitter, errs internalReporter) *WallsBridge {
	return &WallsBridge{
		walls:      walls,
		sender:     sender,
		events:     events,
		errs:       errs,
		logger:     logging.GetGameLogger(),
		breakingBy: make(map[network.ConnID]vec.Vec2),
	}
}

// WelcomePacket возвращает снимок слоя стен
func (b *WallsBridge) WelcomePacket() protocol.Packet {
	return &protocol.WallsWelcome{Data: b.walls.Serialize()}
}

// HandlePacket обрабатывает пакеты ломания стен
func (b *WallsBridge) HandlePacket(conn network.ConnID, p protocol.Packet) bool {
	switch pkt := p.(type) {
	case *protocol.ClientWallBreakStart:
		b.stopCurrent(conn)
		if err := b.walls.StartBreaking(b.events, pkt.X, pkt.Y); err != nil {
			b.logger.Debug("WallBreakStart от %s отклонён: %v", conn, err)
			return true
		}
		b.breakingBy[conn] = vec.New(pkt.X, pkt.Y)
	case *protocol.WallBreakStop:
		if cur, ok := b.breakingBy[conn]; ok && cur == vec.New(pkt.X, pkt.Y) {
			delete(b.breakingBy, conn)
		}
		if err := b.walls.StopBreaking(b.events, pkt.X, pkt.Y); err != nil {
			b.logger.Debug("WallBreakStop от %s отклонён: %v", conn, err)
		}
	default:
		return false
	}
	return true
}

func (b *WallsBridge) stopCurrent(conn network.ConnID) {
	prev, ok := b.breakingBy[conn]
	if !ok {
		return
	}
	delete(b.breakingBy, conn)
	if err := b.walls.StopBreaking(b.events, prev.X, prev.Y); err != nil {
		b.logger.Debug("остановка ломания стены (%d,%d) для %s: %v", prev.X, prev.Y, conn, err)
	}
}

// Disconnect останавливает ломание стены, начатое подключением
func (b *WallsBridge) Disconnect(conn network.ConnID) {
	b.stopCurrent(conn)
}

// HandleEvent рассылает пакеты по событиям стен
func (b *WallsBridge) HandleEvent(e world.Event) {
	switch ev := e.(type) {
	case wall.ChangeEvent:
		id, err := b.walls.Wall(ev.X, ev.Y)
		if err != nil {
			b.errs.report("стена (%d,%d): %v", ev.X, ev.Y, err)
			return
		}
		b.sender.Broadcast(&protocol.WallChange{X: ev.X, Y: ev.Y, Wall: id})
	case wall.StartedBreakingEvent:
		b.sender.Broadcast(&protocol.WallBreakStart{X: ev.X, Y: ev.Y})
	case wall.StoppedBreakingEvent:
		progress, err := b.walls.BreakProgress(ev.X, ev.Y)
		if err != nil {
			b.errs.report("прогресс ломания стены (%d,%d): %v", ev.X, ev.Y, err)
			return
		}
		b.sender.Broadcast(&protocol.WallBreakStop{X: ev.X, Y: ev.Y, BreakTime: progress})
	}
}

// Tick продвигает ломание стен
func (b *WallsBridge) Tick(frame int32) {
	if err := b.walls.UpdateBreaking(b.events, frame); err != nil {
		b.errs.report("тик ломания стен: %v", err)
	}
}
