// Package worldgen строит начальную сетку блоков и стен для нового мира.
package worldgen

import (
	"context"
	"errors"
	"math/rand"

	"github.com/annel0/sandbox-world/internal/world/block"
	"github.com/annel0/sandbox-world/internal/world/wall"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
)

func (b BiomeType) String() string {
	switch b {
	case BiomePlains:
		return "plains"
	case BiomeDesert:
		return "desert"
	case BiomeForest:
		return "forest"
	case BiomeMountains:
		return "mountains"
	default:
		return "unknown"
	}
}

// Palette - id блоков и стен, из которых строится мир
type Palette struct {
	Air    block.ID
	Dirt   block.ID
	Grass  block.ID
	Stone  block.ID
	Sand   block.ID
	Ore    block.ID
	Cactus block.ID
	Tree   block.ID

	ClearWall wall.ID
	DirtWall  wall.ID
	StoneWall wall.ID
}

// Result - сгенерированные слои, индексация [x][y], y растёт вниз
type Result struct {
	Blocks [][]block.ID
	Walls  [][]wall.ID
}

// ErrTooSmall - мир слишком мал для генерации рельефа
var ErrTooSmall = errors.New("мир слишком мал для генерации")

// Generator генерирует рельеф вида сбоку: поверхность, слой почвы, камень, руда и пещеры
type Generator struct {
	Seed    int64
	Palette Palette

	TerrainScale  float64 // Масштаб шума высоты поверхности
	BiomeScale    float64 // Масштаб шума биомов
	CaveScale     float64 // Масштаб шума пещер
	OreScale      float64 // Масштаб шума руды
	CaveThreshold float64 // Чем больше, тем больше пещер
	OreThreshold  float64 // Порог появления руды
	ForestDensity float64 // Шанс дерева на равнине
	TreeDensity   float64 // Шанс дерева в лесу
	CactusDensity float64 // Шанс кактуса в пустыне

	onProgress func(percent int)
}

// New создаёт генератор с настройками по умолчанию
func New(seed int64, palette Palette) *Generator {
	return &Generator{
		Seed:          seed,
		Palette:       palette,
		TerrainScale:  1.0 / 150.0,
		BiomeScale:    1.0 / 400.0,
		CaveScale:     1.0 / 80.0,
		OreScale:      1.0 / 15.0,
		CaveThreshold: 0.12,
		OreThreshold:  0.72,
		ForestDensity: 0.05,
		TreeDensity:   0.15,
		CactusDensity: 0.04,
	}
}

// OnProgress задаёт обработчик прогресса в процентах. Вызывается при каждом изменении процента.
func (g *Generator) OnProgress(fn func(percent int)) {
	g.onProgress = fn
}

// Generate строит мир width x height. Отмена контекста прерывает генерацию между столбцами.
func (g *Generator) Generate(ctx context.Context, width, height uint32) (*Result, error) {
	if width < 1 || height < 16 {
		return nil, ErrTooSmall
	}

	rng := rand.New(rand.NewSource(g.Seed))
	terrain := newNoise(g.Seed)
	biomes := newNoise(g.Seed + 42)
	caves := newNoise(g.Seed + 7)
	ores := newNoise(g.Seed + 13)

	res := &Result{
		Blocks: make([][]block.ID, width),
		Walls:  make([][]wall.ID, width),
	}

	// Суммарная работа: генерация столбцов и расстановка растений
	total := int(width) * 2
	done := 0
	lastPercent := -1
	step := func() {
		done++
		percent := done * 100 / total
		if percent != lastPercent {
			lastPercent = percent
			if g.onProgress != nil {
				g.onProgress(percent)
			}
		}
	}

	surfaces := make([]int32, width)
	columnBiomes := make([]BiomeType, width)
	h := int32(height)

	for x := int32(0); x < int32(width); x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		biome := g.biomeAt(biomes.at1(float64(x) * g.BiomeScale))
		surface := g.surfaceAt(terrain.at1(float64(x)*g.TerrainScale), biome, h)
		surfaces[x] = surface
		columnBiomes[x] = biome

		blocks := make([]block.ID, height)
		walls := make([]wall.ID, height)
		soil := surface + 3 + int32(rng.Intn(3))

		for y := int32(0); y < h; y++ {
			blocks[y], walls[y] = g.cell(x, y, surface, soil, biome, caves, ores)
		}

		res.Blocks[x] = blocks
		res.Walls[x] = walls
		step()
	}

	for x := int32(0); x < int32(width); x++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.plant(res, x, surfaces[x], columnBiomes[x], rng)
		step()
	}

	return res, nil
}

// biomeAt выбирает биом по значению шума
func (g *Generator) biomeAt(v float64) BiomeType {
	switch {
	case v < 0.35:
		return BiomeDesert
	case v > 0.7:
		return BiomeMountains
	case v > 0.55:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// surfaceAt возвращает y поверхности: горы выше, пустыня ниже
func (g *Generator) surfaceAt(v float64, biome BiomeType, height int32) int32 {
	base := float64(height) / 3
	amplitude := float64(height) / 8
	switch biome {
	case BiomeMountains:
		amplitude *= 2
		base -= amplitude / 2
	case BiomeDesert:
		amplitude /= 2
	}
	y := int32(base + (v-0.5)*2*amplitude)
	if y < 4 {
		y = 4
	}
	if y > height-4 {
		y = height - 4
	}
	return y
}

func (g *Generator) cell(x, y, surface, soil int32, biome BiomeType, caves, ores noise) (block.ID, wall.ID) {
	p := g.Palette
	if y < surface {
		return p.Air, p.ClearWall
	}

	var b block.ID
	var w wall.ID
	switch {
	case y == surface && biome == BiomeDesert:
		b, w = p.Sand, p.ClearWall
	case y == surface && biome == BiomeMountains:
		b, w = p.Stone, p.ClearWall
	case y == surface:
		b, w = p.Grass, p.ClearWall
	case y < soil && biome == BiomeDesert:
		b, w = p.Sand, p.DirtWall
	case y < soil:
		b, w = p.Dirt, p.DirtWall
	default:
		b, w = p.Stone, p.StoneWall
		if ores.at2(float64(x)*g.OreScale, float64(y)*g.OreScale) > g.OreThreshold {
			b = p.Ore
		}
	}

	// Пещеры не выходят на поверхность
	if y > surface+2 {
		depth := float64(y-surface) / 200
		if depth > 1 {
			depth = 1
		}
		v := caves.turbulence(float64(x)*g.CaveScale, float64(y)*g.CaveScale)
		if v < 0 {
			v = -v
		}
		if v < g.CaveThreshold*(0.5+depth) {
			b = p.Air
		}
	}
	return b, w
}

// plant ставит деревья и кактусы на поверхность
func (g *Generator) plant(res *Result, x, surface int32, biome BiomeType, rng *rand.Rand) {
	p := g.Palette
	column := res.Blocks[x]
	if column[surface] == p.Air {
		return
	}

	switch biome {
	case BiomeForest, BiomePlains:
		chance := g.ForestDensity
		if biome == BiomeForest {
			chance = g.TreeDensity
		}
		if column[surface] != p.Grass || rng.Float64() >= chance {
			return
		}
		g.stack(column, surface, p.Tree, 3+rng.Intn(4))
	case BiomeDesert:
		if column[surface] != p.Sand || rng.Float64() >= g.CactusDensity {
			return
		}
		g.stack(column, surface, p.Cactus, 1+rng.Intn(3))
	}
}

// stack ставит столб из n блоков над поверхностью
func (g *Generator) stack(column []block.ID, surface int32, id block.ID, n int) {
	for i := int32(1); i <= int32(n); i++ {
		y := surface - i
		if y < 0 || column[y] != g.Palette.Air {
			return
		}
		column[y] = id
	}
}
