package game

import (
	"fmt"
	"sort"

	"github.com/annel0/sandbox-world/internal/config"
	"github.com/annel0/sandbox-world/internal/network"
	"github.com/annel0/sandbox-world/internal/protocol"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/item"
)

// Player - игрок, привязанный к подключению
type Player struct {
	Conn      network.ConnID
	Inventory *item.Inventory
}

type kitEntry struct {
	item     world.ItemID
	count    int32
	maxStack int32
}

// Players хранит игроков по подключениям. Принадлежит игровому циклу.
type Players struct {
	size   int
	kit    []kitEntry
	byConn map[network.ConnID]*Player
}

// NewPlayers создаёт реестр игроков. Предметы стартового набора ищутся
// по имени сразу, неизвестное имя - ошибка конфигурации.
func NewPlayers(items *item.Registry, inventorySize int, kit []config.StarterItem) (*Players, error) {
	p := &Players{
		size:   inventorySize,
		byConn: make(map[network.ConnID]*Player),
	}
	for _, k := range kit {
		id, err := items.IDByName(k.Item)
		if err != nil {
			return nil, fmt.Errorf("стартовый набор: %w", err)
		}
		t, err := items.Get(id)
		if err != nil {
			return nil, err
		}
		p.kit = append(p.kit, kitEntry{item: id, count: k.Count, maxStack: t.MaxStack})
	}
	return p, nil
}

// Join создаёт игрока со стартовым набором
func (p *Players) Join(conn network.ConnID) *Player {
	if pl, ok := p.byConn[conn]; ok {
		return pl
	}
	inv := item.NewInventory(p.size)
	for _, k := range p.kit {
		inv.Add(k.item, k.count, k.maxStack)
	}
	pl := &Player{Conn: conn, Inventory: inv}
	p.byConn[conn] = pl
	return pl
}

// Leave удаляет игрока
func (p *Players) Leave(conn network.ConnID) {
	delete(p.byConn, conn)
}

// Get возвращает игрока по подключению
func (p *Players) Get(conn network.ConnID) (*Player, bool) {
	pl, ok := p.byConn[conn]
	return pl, ok
}

// Count возвращает число игроков
func (p *Players) Count() int { return len(p.byConn) }

// Conns возвращает подключения игроков по порядку
func (p *Players) Conns() []network.ConnID {
	out := make([]network.ConnID, 0, len(p.byConn))
	for id := range p.byConn {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InventoryPacket собирает пакет с инвентарём игрока
func (pl *Player) InventoryPacket() *protocol.PlayerInventory {
	return &protocol.PlayerInventory{
		Slots:    pl.Inventory.Slots(),
		Selected: int32(pl.Inventory.SelectedSlot()),
	}
}
