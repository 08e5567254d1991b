package content

import (
	"github.com/annel0/sandbox-world/internal/modhost"
	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world/block"
)

// Трава: рост хранится в первом байте дополнительных данных
const (
	grassMaxGrowth    = 5
	grassSpreadGrowth = 3
	grassGrowChance   = 0.1
	grassSpreadChance = 0.05
)

// OnBlockRandomTick выращивает траву и распространяет её на соседнюю землю.
// Трава под непрозрачным блоком превращается в землю.
func (b *Base) OnBlockRandomTick(api *modhost.API, x, y int32) error {
	id, err := api.Block(x, y)
	if err != nil || id != b.Blocks.Grass {
		return err
	}

	if b.covered(api, x, y) {
		return api.SetBlock(x, y, b.Blocks.Dirt)
	}

	data, err := api.BlockData(x, y)
	if err != nil {
		return err
	}
	growth := byte(0)
	if len(data) > 0 {
		growth = data[0]
	}

	if growth < grassMaxGrowth && b.rng.Float64() < grassGrowChance {
		growth++
		if err := api.SetBlockData(x, y, []byte{growth}); err != nil {
			return err
		}
	}

	if growth < grassSpreadGrowth || b.rng.Float64() >= grassSpreadChance {
		return nil
	}

	dirs := vec.New(x, y).Neighbors4()
	target := dirs[b.rng.Intn(len(dirs))]

	tid, err := api.Block(target.X, target.Y)
	if err != nil || tid != b.Blocks.Dirt || b.covered(api, target.X, target.Y) {
		return nil
	}
	return api.SetBlock(target.X, target.Y, b.Blocks.Grass)
}

// covered сообщает, что над клеткой стоит непрозрачный блок
func (b *Base) covered(api *modhost.API, x, y int32) bool {
	above, err := api.BlockTypeAt(x, y-1)
	if err != nil {
		return false
	}
	return !above.Transparent
}

// OnBlockUpdate ломает кактус без опоры: под ним должен быть песок или кактус.
func (b *Base) OnBlockUpdate(api *modhost.API, x, y int32) error {
	id, err := api.Block(x, y)
	if err != nil || id != b.Blocks.Cactus {
		return err
	}

	below, err := api.Block(x, y+1)
	if err != nil {
		// нижний край мира держит кактус
		return nil
	}
	if below == b.Blocks.Sand || below == b.Blocks.Cactus {
		return nil
	}
	return api.BreakBlock(x, y)
}

// OnBlockBreak валит ствол дерева: сломанный сегмент ломает сегмент над собой.
func (b *Base) OnBlockBreak(api *modhost.API, x, y int32, prev block.ID) error {
	if prev != b.Blocks.Tree {
		return nil
	}
	above, err := api.Block(x, y-1)
	if err != nil || above != b.Blocks.Tree {
		return nil
	}
	return api.BreakBlock(x, y-1)
}
