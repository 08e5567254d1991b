package game

import (
	"errors"

	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// Sender - исходящая сторона сетевого слоя
type Sender interface {
	Send(id network.ConnID, p protocol.Packet) error
	Welcome(id network.ConnID, packets ...protocol.Packet) error
	Broadcast(p protocol.Packet)
}

// BlocksBridge переводит изменения слоя блоков в пакеты и пакеты клиентов
// в операции над блоками. Работает только в горутине игрового цикла.
type BlocksBridge struct {
	blocks  *block.Blocks
	walls   *wall.Walls
	items   *item.Registry
	players *Players
	sender  Sender
	events  world.Emitter
	errs    internalReporter
	logger  *logging.Logger

	breakingBy map[network.ConnID]vec.Vec2
}

// NewBlocksBridge создаёт мост слоя блоков
func NewBlocksBridge(blocks *block.Blocks, walls *wall.Walls, items *item.Registry, players *Players,
	sender Sender, events world.Emitter, errs internalReporter) *BlocksBridge {
	return &BlocksBridge{
		blocks:     blocks,
		walls:      walls,
		items:      items,
		players:    players,
		sender:     sender,
		events:     events,
		errs:       errs,
		logger:     logging.GetGameLogger(),
		breakingBy: make(map[network.ConnID]vec.Vec2),
	}
}

// WelcomePacket возвращает снимок слоя для нового подключения
func (b *BlocksBridge) WelcomePacket() protocol.Packet {
	return &protocol.BlocksWelcome{Data: b.blocks.Serialize()}
}

// HandlePacket обрабатывает пакет клиента. Возвращает false, если пакет не про блоки.
// Ошибки клиентских запросов только логируются.
func (b *BlocksBridge) HandlePacket(conn network.ConnID, p protocol.Packet) bool {
	switch pkt := p.(type) {
	case *protocol.ClientBlockBreakStart:
		b.startBreaking(conn, pkt.X, pkt.Y)
	case *protocol.BlockBreakStop:
		if cur, ok := b.breakingBy[conn]; ok && cur == vec.New(pkt.X, pkt.Y) {
			delete(b.breakingBy, conn)
		}
		if err := b.blocks.StopBreaking(b.events, pkt.X, pkt.Y); err != nil {
			b.logger.Debug("BreakStop от %s отклонён: %v", conn, err)
		}
	case *protocol.BlockRightClick:
		b.rightClick(conn, pkt.X, pkt.Y)
	default:
		return false
	}
	return true
}

func (b *BlocksBridge) startBreaking(conn network.ConnID, x, y int32) {
	if prev, ok := b.breakingBy[conn]; ok {
		if err := b.blocks.StopBreaking(b.events, prev.X, prev.Y); err != nil {
			b.logger.Debug("остановка ломания (%d,%d) для %s: %v", prev.X, prev.Y, conn, err)
		}
		delete(b.breakingBy, conn)
	}

	pl, ok := b.players.Get(conn)
	if !ok {
		b.logger.Debug("BreakStart от неизвестного игрока %s", conn)
		return
	}
	tool, power := b.items.ToolOf(pl.Inventory.Selected())
	if err := b.blocks.StartBreaking(b.events, x, y, tool, power); err != nil {
		b.logger.Debug("BreakStart от %s отклонён: %v", conn, err)
		return
	}
	b.breakingBy[conn] = vec.New(x, y)
}

// rightClick ставит блок или стену из выбранного слота игрока
func (b *BlocksBridge) rightClick(conn network.ConnID, x, y int32) {
	pl, ok := b.players.Get(conn)
	if !ok {
		return
	}
	stack := pl.Inventory.Selected()
	if stack == nil {
		return
	}
	t, err := b.items.Get(stack.Item)
	if err != nil {
		b.logger.Warn("у игрока %s неизвестный предмет %d", conn, stack.Item)
		return
	}

	placed := false
	switch {
	case t.PlacesBlock != b.blocks.Air():
		placed, err = b.blocks.Place(b.events, x, y, t.PlacesBlock)
	case t.PlacesWall != b.walls.Clear():
		var cur wall.ID
		cur, err = b.walls.Wall(x, y)
		if err == nil && cur == b.walls.Clear() {
			err = b.walls.SetWall(b.events, x, y, t.PlacesWall)
			placed = err == nil
		}
	}
	if err != nil {
		b.logger.Debug("RightClick от %s в (%d,%d) отклонён: %v", conn, x, y, err)
		return
	}
	if !placed {
		return
	}

	pl.Inventory.TakeSelected(1)
	if err := b.sender.Send(conn, pl.InventoryPacket()); err != nil && !errors.Is(err, network.ErrConnNotFound) {
		b.logger.Warn("отправка инвентаря %s: %v", conn, err)
	}
}

// Disconnect останавливает ломание, начатое подключением
func (b *BlocksBridge) Disconnect(conn network.ConnID) {
	prev, ok := b.breakingBy[conn]
	if !ok {
		return
	}
	delete(b.breakingBy, conn)
	if err := b.blocks.StopBreaking(b.events, prev.X, prev.Y); err != nil {
		b.errs.report("остановка ломания (%d,%d) при отключении: %v", prev.X, prev.Y, err)
	}
}

// HandleEvent рассылает пакеты по доменным событиям и запускает
// перепроверку соседей после изменения клетки
func (b *BlocksBridge) HandleEvent(e world.Event) {
	switch ev := e.(type) {
	case block.ChangeEvent:
		b.broadcastChange(ev.X, ev.Y)
		b.updateNeighbours(ev.X, ev.Y)
	case block.InventoryChangeEvent:
		b.broadcastChange(ev.X, ev.Y)
	case block.StartedBreakingEvent:
		b.sender.Broadcast(&protocol.BlockBreakStart{X: ev.X, Y: ev.Y, Tool: ev.Tool, ToolPower: ev.ToolPower})
	case block.StoppedBreakingEvent:
		progress, err := b.blocks.BreakProgress(ev.X, ev.Y)
		if err != nil {
			b.errs.report("прогресс ломания (%d,%d): %v", ev.X, ev.Y, err)
			return
		}
		b.sender.Broadcast(&protocol.BlockBreakStop{X: ev.X, Y: ev.Y, BreakTime: progress})
	}
}

func (b *BlocksBridge) broadcastChange(x, y int32) {
	pkt, err := b.changePacket(x, y)
	if err != nil {
		b.errs.report("пакет изменения (%d,%d): %v", x, y, err)
		return
	}
	b.sender.Broadcast(pkt)
}

func (b *BlocksBridge) changePacket(x, y int32) (*protocol.BlockChange, error) {
	id, err := b.blocks.Block(x, y)
	if err != nil {
		return nil, err
	}
	fm, err := b.blocks.FromMain(x, y)
	if err != nil {
		return nil, err
	}
	inv, err := b.blocks.Inventory(x, y)
	if err != nil {
		return nil, err
	}
	return &protocol.BlockChange{X: x, Y: y, FromMainX: fm.X, FromMainY: fm.Y, Block: id, Inventory: inv}, nil
}

// updateNeighbours перепроверяет саму клетку и четырёх соседей. Клетка,
// осыпавшаяся в воздух, обновится заново по своему событию изменения.
func (b *BlocksBridge) updateNeighbours(x, y int32) {
	wmap := b.blocks.Map()
	cells := [5]vec.Vec2{vec.New(x, y), vec.New(x-1, y), vec.New(x+1, y), vec.New(x, y-1), vec.New(x, y+1)}
	for _, c := range cells {
		if !wmap.Contains(c.X, c.Y) {
			continue
		}
		before, err := b.blocks.Block(c.X, c.Y)
		if err == nil {
			err = b.blocks.UpdateMulticell(b.events, c.X, c.Y)
		}
		if err != nil {
			b.errs.report("обновление клетки (%d,%d): %v", c.X, c.Y, err)
			continue
		}
		if after, _ := b.blocks.Block(c.X, c.Y); after != before {
			continue
		}
		b.events.Emit(block.UpdateEvent{X: c.X, Y: c.Y})
	}
}

// Tick продвигает ломание блоков на frame миллисекунд
func (b *BlocksBridge) Tick(frame int32) {
	if err := b.blocks.UpdateBreaking(b.events, frame); err != nil {
		b.errs.report("тик ломания блоков: %v", err)
	}
}
