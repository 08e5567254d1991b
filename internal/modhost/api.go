// Package modhost связывает моды с миром: даёт им функции для работы
// с блоками и стенами и вызывает их обработчики событий.
package modhost

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// API - функции, доступные модам. Все изменения мира уходят в Relay
// и попадают в основной поток событий при следующем сбросе.
type API struct {
	blocks *block.Blocks
	walls  *wall.Walls
	items  *item.Registry
	relay  *Relay
}

// NewAPI создаёт API поверх слоёв мира
func NewAPI(blocks *block.Blocks, walls *wall.Walls, items *item.Registry, relay *Relay) *API {
	return &API{blocks: blocks, walls: walls, items: items, relay: relay}
}

// Width возвращает ширину мира
func (a *API) Width() uint32 { return a.blocks.Width() }

// Height возвращает высоту мира
func (a *API) Height() uint32 { return a.blocks.Height() }

// RegisterBlockType регистрирует тип блока
func (a *API) RegisterBlockType(t block.Type) (block.ID, error) {
	return a.blocks.Registry().Register(t)
}

// RegisterTool регистрирует инструмент
func (a *API) RegisterTool(name string) (block.ToolID, error) {
	return a.blocks.Registry().RegisterTool(name)
}

// ToolIDByName ищет инструмент по имени
func (a *API) ToolIDByName(name string) (block.ToolID, error) {
	return a.blocks.Registry().ToolIDByName(name)
}

// ConnectBlocks делает два типа блоков соединяемыми друг с другом
func (a *API) ConnectBlocks(x, y block.ID) error {
	return a.blocks.Registry().Connect(x, y)
}

// BlockIDByName ищет тип блока по имени
func (a *API) BlockIDByName(name string) (block.ID, error) {
	return a.blocks.Registry().IDByName(name)
}

// AllBlockIDs возвращает id всех зарегистрированных блоков
func (a *API) AllBlockIDs() []block.ID {
	return a.blocks.Registry().IDs()
}

// Block возвращает блок в клетке
func (a *API) Block(x, y int32) (block.ID, error) {
	return a.blocks.Block(x, y)
}

// BlockTypeAt возвращает тип блока в клетке
func (a *API) BlockTypeAt(x, y int32) (block.Type, error) {
	return a.blocks.TypeAt(x, y)
}

// SetBlock ставит блок
func (a *API) SetBlock(x, y int32, id block.ID) error {
	return a.blocks.SetBlock(a.relay, x, y, id)
}

// BreakBlock ломает блок вместе с остальными клетками большого блока
func (a *API) BreakBlock(x, y int32) error {
	return a.blocks.BreakBlock(a.relay, x, y)
}

// BlockData возвращает дополнительные данные блока
func (a *API) BlockData(x, y int32) ([]byte, error) {
	return a.blocks.Data(x, y)
}

// SetBlockData задаёт дополнительные данные блока
func (a *API) SetBlockData(x, y int32, data []byte) error {
	return a.blocks.SetData(x, y, data)
}

// BlockInventoryItems возвращает предметы в слотах; пустой слот - nil
func (a *API) BlockInventoryItems(x, y int32) ([]*world.ItemID, error) {
	inv, err := a.blocks.Inventory(x, y)
	if err != nil {
		return nil, err
	}
	res := make([]*world.ItemID, len(inv))
	for i, s := range inv {
		if s != nil {
			id := s.Item
			res[i] = &id
		}
	}
	return res, nil
}

// BlockInventoryItemCounts возвращает количества в слотах; пустой слот - nil
func (a *API) BlockInventoryItemCounts(x, y int32) ([]*int32, error) {
	inv, err := a.blocks.Inventory(x, y)
	if err != nil {
		return nil, err
	}
	res := make([]*int32, len(inv))
	for i, s := range inv {
		if s != nil {
			n := s.Count
			res[i] = &n
		}
	}
	return res, nil
}

// SetBlockInventoryItem кладёт стопку в слот инвентаря блока. count <= 0 очищает слот.
func (a *API) SetBlockInventoryItem(x, y int32, index int, itemID world.ItemID, count int32) error {
	inv, err := a.blocks.Inventory(x, y)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(inv) {
		return fmt.Errorf("%w: слот %d из %d в (%d,%d)", world.ErrOutOfBounds, index, len(inv), x, y)
	}
	if a.items != nil {
		if _, err := a.items.Get(itemID); err != nil {
			return err
		}
	}
	if count <= 0 {
		inv[index] = nil
	} else {
		inv[index] = world.NewItemStack(itemID, count)
	}
	return a.blocks.SetInventory(a.relay, x, y, inv)
}

// RegisterWallType регистрирует тип стены. Отрицательное время - неломаемая стена.
func (a *API) RegisterWallType(name string, breakTime int32) (wall.ID, error) {
	return a.walls.Registry().Register(name, breakTime)
}

// WallIDByName ищет тип стены по имени
func (a *API) WallIDByName(name string) (wall.ID, error) {
	return a.walls.Registry().IDByName(name)
}

// Wall возвращает стену в клетке
func (a *API) Wall(x, y int32) (wall.ID, error) {
	return a.walls.Wall(x, y)
}

// SetWall ставит стену
func (a *API) SetWall(x, y int32, id wall.ID) error {
	return a.walls.SetWall(a.relay, x, y, id)
}

// RegisterItem регистрирует тип предмета
func (a *API) RegisterItem(t item.Type) (world.ItemID, error) {
	return a.items.Register(t)
}

// ItemIDByName ищет предмет по имени
func (a *API) ItemIDByName(name string) (world.ItemID, error) {
	return a.items.IDByName(name)
}
