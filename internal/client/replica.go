// Package client - клиентская сторона протокола: локальная копия сеток мира,
// которая догоняет сервер по пакетам, и соединение с игровым сервером.
package client

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// Replica - копия мира на клиенте. Реестры типов заполняются теми же модами,
// что и на сервере, иначе id блоков не совпадут.
//
// Ломание продвигается локально для анимации, но итог определяет сервер:
// клетка меняется только по BlockChange и WallChange.
type Replica struct {
	Blocks *block.Blocks
	Walls  *wall.Walls
	Items  *item.Registry

	Inventory world.Slots
	Selected  int32

	events        *world.EventQueue
	blocksWelcome bool
	wallsWelcome  bool
}

// NewReplica создаёт пустую копию и регистрирует контент модов
func NewReplica(mods ...modhost.Mod) (*Replica, error) {
	blocks := block.New()
	walls := wall.New()
	items := item.NewRegistry()
	relay := &modhost.Relay{}
	host := modhost.NewHost(modhost.NewAPI(blocks, walls, items, relay), relay)
	if err := host.Load(mods...); err != nil {
		return nil, err
	}
	return &Replica{
		Blocks: blocks,
		Walls:  walls,
		Items:  items,
		events: world.NewEventQueue(),
	}, nil
}

// Ready сообщает, что получены оба снимка
func (r *Replica) Ready() bool {
	return r.blocksWelcome && r.wallsWelcome
}

// Events забирает накопленные локальные события (для перерисовки)
func (r *Replica) Events() []world.Event {
	return r.events.Drain()
}

// Apply применяет пакет сервера. Пакеты клиента возвращают ошибку.
func (r *Replica) Apply(p protocol.Packet) error {
	switch pkt := p.(type) {
	case *protocol.BlocksWelcome:
		if err := r.Blocks.Deserialize(pkt.Data); err != nil {
			return fmt.Errorf("снимок блоков: %w", err)
		}
		r.blocksWelcome = true
	case *protocol.WallsWelcome:
		if err := r.Walls.Deserialize(pkt.Data); err != nil {
			return fmt.Errorf("снимок стен: %w", err)
		}
		r.wallsWelcome = true
	case *protocol.BlockChange:
		fm := vec.New(pkt.FromMainX, pkt.FromMainY)
		if err := r.Blocks.SetBigBlock(r.events, pkt.X, pkt.Y, pkt.Block, fm); err != nil {
			return err
		}
		inv := pkt.Inventory
		if inv == nil {
			inv = world.Slots{}
		}
		return r.Blocks.SetInventory(r.events, pkt.X, pkt.Y, inv)
	case *protocol.BlockBreakStart:
		return r.Blocks.StartBreaking(r.events, pkt.X, pkt.Y, pkt.Tool, pkt.ToolPower)
	case *protocol.BlockBreakStop:
		if err := r.Blocks.StopBreaking(r.events, pkt.X, pkt.Y); err != nil {
			return err
		}
		return r.Blocks.SetBreakProgress(pkt.X, pkt.Y, pkt.BreakTime)
	case *protocol.WallChange:
		return r.Walls.SetWall(r.events, pkt.X, pkt.Y, pkt.Wall)
	case *protocol.WallBreakStart:
		return r.Walls.StartBreaking(r.events, pkt.X, pkt.Y)
	case *protocol.WallBreakStop:
		if err := r.Walls.StopBreaking(r.events, pkt.X, pkt.Y); err != nil {
			return err
		}
		return r.Walls.SetBreakProgress(pkt.X, pkt.Y, pkt.BreakTime)
	case *protocol.PlayerInventory:
		r.Inventory = pkt.Slots.Clone()
		r.Selected = pkt.Selected
	default:
		return fmt.Errorf("%w: %s не ожидается от сервера", protocol.ErrUnknownPacket, p.Type())
	}
	return nil
}

// Tick продвигает анимацию ломания. Прогресс не превышает время ломания:
// разрушение приходит от сервера.
func (r *Replica) Tick(frame int32) error {
	if err := r.advanceBlocks(frame); err != nil {
		return err
	}
	return r.advanceWalls(frame)
}

func (r *Replica) advanceBlocks(frame int32) error {
	for _, e := range r.Blocks.BreakingBlocks() {
		if !e.Breaking {
			continue
		}
		t, err := r.Blocks.TypeAt(e.Coord.X, e.Coord.Y)
		if err != nil {
			return err
		}
		if err := r.Blocks.SetBreakProgress(e.Coord.X, e.Coord.Y, min(e.Progress+frame, t.BreakTime)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replica) advanceWalls(frame int32) error {
	for _, e := range r.Walls.BreakingWalls() {
		if !e.Breaking {
			continue
		}
		t, err := r.Walls.TypeAt(e.Coord.X, e.Coord.Y)
		if err != nil {
			return err
		}
		if err := r.Walls.SetBreakProgress(e.Coord.X, e.Coord.Y, min(e.Progress+frame, t.BreakTime)); err != nil {
			return err
		}
	}
	return nil
}

// SelectedStack возвращает стопку в выбранном слоте или nil
func (r *Replica) SelectedStack() *world.ItemStack {
	if r.Selected < 0 || int(r.Selected) >= len(r.Inventory) {
		return nil
	}
	return r.Inventory[r.Selected]
}
