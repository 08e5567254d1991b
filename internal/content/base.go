// Package content - встроенный мод с базовыми блоками, стенами,
// инструментами и предметами.
package content

import (
	"math/rand"

	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/item"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// Blocks - id блоков, зарегистрированных модом
type Blocks struct {
	Air       block.ID
	Dirt      block.ID
	Grass     block.ID
	Stone     block.ID
	Sand      block.ID
	CopperOre block.ID
	Cactus    block.ID
	Tree      block.ID
	Wood      block.ID
	Torch     block.ID
	Workbench block.ID
	Chest     block.ID
}

// Walls - id стен
type Walls struct {
	Clear wall.ID
	Dirt  wall.ID
	Stone wall.ID
	Wood  wall.ID
}

// Tools - id инструментов
type Tools struct {
	Pickaxe block.ToolID
	Axe     block.ToolID
}

// Base - встроенный мод
type Base struct {
	Blocks Blocks
	Walls  Walls
	Tools  Tools

	rng *rand.Rand
}

// New создаёт мод. seed задаёт источник случайности для случайных тиков.
func New(seed int64) *Base {
	return &Base{rng: rand.New(rand.NewSource(seed))}
}

// Name возвращает имя мода
func (b *Base) Name() string { return "base" }

// Init регистрирует контент
func (b *Base) Init(api *modhost.API) error {
	if err := b.registerTools(api); err != nil {
		return err
	}
	if err := b.registerBlocks(api); err != nil {
		return err
	}
	if err := b.registerWalls(api); err != nil {
		return err
	}
	return b.registerItems(api)
}

func (b *Base) registerTools(api *modhost.API) error {
	var err error
	if b.Tools.Pickaxe, err = api.RegisterTool("pickaxe"); err != nil {
		return err
	}
	b.Tools.Axe, err = api.RegisterTool("axe")
	return err
}

func (b *Base) registerBlocks(api *modhost.API) error {
	defs := []struct {
		dst *block.ID
		typ block.Type
	}{
		{&b.Blocks.Dirt, block.Type{Name: "dirt", BreakTime: 500}},
		{&b.Blocks.Grass, block.Type{Name: "grass", BreakTime: 600}},
		{&b.Blocks.Stone, block.Type{Name: "stone", BreakTime: 1000, EffectiveTool: b.Tools.Pickaxe, RequiredToolPower: 1}},
		{&b.Blocks.Sand, block.Type{Name: "sand", BreakTime: 400}},
		{&b.Blocks.CopperOre, block.Type{Name: "copper_ore", BreakTime: 1500, EffectiveTool: b.Tools.Pickaxe, RequiredToolPower: 2}},
		{&b.Blocks.Cactus, block.Type{Name: "cactus", BreakTime: 300, Transparent: true}},
		{&b.Blocks.Tree, block.Type{Name: "tree", BreakTime: 1200, EffectiveTool: b.Tools.Axe, RequiredToolPower: 1, Transparent: true, Ghost: true}},
		{&b.Blocks.Wood, block.Type{Name: "wood", BreakTime: 800}},
		{&b.Blocks.Torch, block.Type{Name: "torch", BreakTime: 50, Transparent: true, Ghost: true, LightEmission: [3]uint8{200, 160, 80}}},
		{&b.Blocks.Workbench, block.Type{Name: "workbench", Width: 2, Height: 1, BreakTime: 700, Transparent: true, Clickable: true}},
		{&b.Blocks.Chest, block.Type{Name: "chest", Width: 2, Height: 2, BreakTime: 700, Clickable: true, InventorySlots: chestSlots()}},
	}

	air, err := api.BlockIDByName(block.AirName)
	if err != nil {
		return err
	}
	b.Blocks.Air = air

	for _, d := range defs {
		id, err := api.RegisterBlockType(d.typ)
		if err != nil {
			return err
		}
		*d.dst = id
	}

	if err := api.ConnectBlocks(b.Blocks.Dirt, b.Blocks.Grass); err != nil {
		return err
	}
	return api.ConnectBlocks(b.Blocks.Stone, b.Blocks.CopperOre)
}

// chestSlots - сетка 5x4 слотов сундука
func chestSlots() []block.SlotPos {
	slots := make([]block.SlotPos, 0, 20)
	for y := int32(0); y < 4; y++ {
		for x := int32(0); x < 5; x++ {
			slots = append(slots, block.SlotPos{X: x * 18, Y: y * 18})
		}
	}
	return slots
}

func (b *Base) registerWalls(api *modhost.API) error {
	var err error
	if b.Walls.Clear, err = api.WallIDByName(wall.ClearName); err != nil {
		return err
	}
	if b.Walls.Dirt, err = api.RegisterWallType("dirt_wall", 400); err != nil {
		return err
	}
	if b.Walls.Stone, err = api.RegisterWallType("stone_wall", 900); err != nil {
		return err
	}
	b.Walls.Wood, err = api.RegisterWallType("wood_wall", 600)
	return err
}

func (b *Base) registerItems(api *modhost.API) error {
	items := []item.Type{
		{Name: "dirt", DisplayName: "Земля", PlacesBlock: b.Blocks.Dirt},
		{Name: "stone", DisplayName: "Камень", PlacesBlock: b.Blocks.Stone},
		{Name: "sand", DisplayName: "Песок", PlacesBlock: b.Blocks.Sand},
		{Name: "copper_ore", DisplayName: "Медная руда", PlacesBlock: b.Blocks.CopperOre},
		{Name: "cactus", DisplayName: "Кактус", PlacesBlock: b.Blocks.Cactus},
		{Name: "wood", DisplayName: "Доски", PlacesBlock: b.Blocks.Wood},
		{Name: "torch", DisplayName: "Факел", PlacesBlock: b.Blocks.Torch},
		{Name: "workbench", DisplayName: "Верстак", MaxStack: 1, PlacesBlock: b.Blocks.Workbench},
		{Name: "chest", DisplayName: "Сундук", MaxStack: 1, PlacesBlock: b.Blocks.Chest},
		{Name: "dirt_wall", DisplayName: "Земляная стена", PlacesWall: b.Walls.Dirt},
		{Name: "stone_wall", DisplayName: "Каменная стена", PlacesWall: b.Walls.Stone},
		{Name: "wood_wall", DisplayName: "Деревянная стена", PlacesWall: b.Walls.Wood},
		{Name: "copper_pickaxe", DisplayName: "Медная кирка", MaxStack: 1, Tool: b.Tools.Pickaxe, ToolPower: 2},
		{Name: "copper_axe", DisplayName: "Медный топор", MaxStack: 1, Tool: b.Tools.Axe, ToolPower: 2},
	}
	for _, t := range items {
		if _, err := api.RegisterItem(t); err != nil {
			return err
		}
	}
	return nil
}
