package vec

import "math"

// ChunkShift соответствует размеру чанка 16 клеток.
const ChunkShift = 4

// Vec2 представляет 2D координаты клетки или смещение между клетками
type Vec2 struct {
	X, Y int32
}

// Zero - нулевое смещение (главная клетка большого блока)
var Zero = Vec2{}

// New создаёт вектор из пары координат
func New(x, y int32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add складывает векторы
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub вычитает векторы
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// IsZero сообщает, является ли вектор нулевым
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// ToChunkCoords преобразует глобальные координаты в координаты чанка
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkShift, Y: v.Y >> ChunkShift}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: v.X & 0xF, Y: v.Y & 0xF}
}

// Neighbors4 возвращает четырёх соседей по сторонам: лево, право, верх, низ.
func (v Vec2) Neighbors4() [4]Vec2 {
	return [4]Vec2{
		{X: v.X - 1, Y: v.Y},
		{X: v.X + 1, Y: v.Y},
		{X: v.X, Y: v.Y - 1},
		{X: v.X, Y: v.Y + 1},
	}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
