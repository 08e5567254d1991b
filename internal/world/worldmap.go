package world

import "fmt"

// ChunkSize - сторона чанка в клетках
const ChunkSize = 16

// WorldMap хранит размеры мира и переводит координаты клеток в линейный индекс.
// Значение неизменяемо после создания.
type WorldMap struct {
	width  uint32
	height uint32
}

// NewWorldMap создаёт карту заданного размера
func NewWorldMap(width, height uint32) WorldMap {
	return WorldMap{width: width, height: height}
}

// Width возвращает ширину мира в клетках
func (m WorldMap) Width() uint32 { return m.width }

// Height возвращает высоту мира в клетках
func (m WorldMap) Height() uint32 { return m.height }

// Cells возвращает общее количество клеток
func (m WorldMap) Cells() int { return int(m.width) * int(m.height) }

// Contains сообщает, лежит ли клетка внутри мира
func (m WorldMap) Contains(x, y int32) bool {
	return x >= 0 && y >= 0 && int64(x) < int64(m.width) && int64(y) < int64(m.height)
}

// TranslateCoords переводит (x, y) в индекс x*height + y.
func (m WorldMap) TranslateCoords(x, y int32) (int, error) {
	if !m.Contains(x, y) {
		return 0, fmt.Errorf("%w: x=%d y=%d (мир %dx%d)", ErrOutOfBounds, x, y, m.width, m.height)
	}
	return int(x)*int(m.height) + int(y), nil
}

// ChunksX возвращает число полных чанков по горизонтали
func (m WorldMap) ChunksX() int32 { return int32(m.width / ChunkSize) }

// ChunksY возвращает число полных чанков по вертикали
func (m WorldMap) ChunksY() int32 { return int32(m.height / ChunkSize) }

// TranslateChunkCoords переводит координаты чанка в индекс x + y*chunksX.
func (m WorldMap) TranslateChunkCoords(x, y int32) (int, error) {
	if x < 0 || y < 0 || x >= m.ChunksX() || y >= m.ChunksY() {
		return 0, fmt.Errorf("%w: чанк x=%d y=%d", ErrOutOfBounds, x, y)
	}
	return int(x) + int(y)*int(m.ChunksX()), nil
}
