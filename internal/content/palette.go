package content

import "github.com/annel0/sandbox-world/internal/worldgen"

// Palette возвращает набор блоков для генератора мира. Вызывается после Init.
func (b *Base) Palette() worldgen.Palette {
	return worldgen.Palette{
		Air:       b.Blocks.Air,
		Dirt:      b.Blocks.Dirt,
		Grass:     b.Blocks.Grass,
		Stone:     b.Blocks.Stone,
		Sand:      b.Blocks.Sand,
		Ore:       b.Blocks.CopperOre,
		Cactus:    b.Blocks.Cactus,
		Tree:      b.Blocks.Tree,
		ClearWall: b.Walls.Clear,
		DirtWall:  b.Walls.Dirt,
		StoneWall: b.Walls.Stone,
	}
}
