// Package block владеет слоем блоков мира: плотной сеткой id, разреженными
// картами больших блоков, дополнительных данных и инвентарей, а также
// прогрессом ломания.
package block

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/vec"
	"github.com/annel0/sandbox-world/internal/world"
	"github.com/annel0/sandbox-world/internal/world/breaking"
)

// gridData - сериализуемое состояние сетки
type gridData struct {
	wmap world.WorldMap
	ids  []ID
	// смещение клетки от главной клетки большого блока, почти всегда (0,0)
	fromMain  map[int]vec.Vec2
	extra     map[int][]byte
	inventory map[int]world.Slots
}

func newGridData(wmap world.WorldMap) gridData {
	return gridData{
		wmap:      wmap,
		ids:       make([]ID, wmap.Cells()),
		fromMain:  make(map[int]vec.Vec2),
		extra:     make(map[int][]byte),
		inventory: make(map[int]world.Slots),
	}
}

// Blocks - слой блоков. Не потокобезопасен: им владеет поток симуляции.
type Blocks struct {
	registry *Registry
	data     gridData
	breaking *breaking.Tracker
}

// New создаёт пустой слой 0x0 с собственным реестром
func New() *Blocks {
	return NewWithRegistry(NewRegistry())
}

// NewWithRegistry создаёт слой поверх готового реестра
func NewWithRegistry(r *Registry) *Blocks {
	return &Blocks{
		registry: r,
		data:     newGridData(world.NewWorldMap(0, 0)),
		breaking: breaking.NewTracker(),
	}
}

// Registry возвращает реестр типов
func (b *Blocks) Registry() *Registry { return b.registry }

// Air возвращает id воздуха
func (b *Blocks) Air() ID { return b.registry.Air() }

// Map возвращает размеры мира
func (b *Blocks) Map() world.WorldMap { return b.data.wmap }

// Width возвращает ширину мира
func (b *Blocks) Width() uint32 { return b.data.wmap.Width() }

// Height возвращает высоту мира
func (b *Blocks) Height() uint32 { return b.data.wmap.Height() }

// Create заполняет мир воздухом и сбрасывает всё состояние
func (b *Blocks) Create(width, height uint32) {
	b.data = newGridData(world.NewWorldMap(width, height))
	air := b.Air()
	for i := range b.data.ids {
		b.data.ids[i] = air
	}
	b.breaking.Clear()
}

// CreateFromIDs принимает начальную сетку в виде grid[x][y]
func (b *Blocks) CreateFromIDs(grid [][]ID) error {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return fmt.Errorf("%w: пустая сетка", world.ErrShapeMismatch)
	}
	height := len(grid[0])
	for x, col := range grid {
		if len(col) != height {
			return fmt.Errorf("%w: столбец %d длины %d, ожидалось %d", world.ErrShapeMismatch, x, len(col), height)
		}
		for y, id := range col {
			if !b.registry.Valid(id) {
				return fmt.Errorf("%w: %d в (%d,%d)", world.ErrUnknownBlockType, id, x, y)
			}
		}
	}

	b.Create(uint32(len(grid)), uint32(height))
	i := 0
	for _, col := range grid {
		copy(b.data.ids[i:], col)
		i += height
	}
	return nil
}

func (b *Blocks) index(x, y int32) (int, error) {
	return b.data.wmap.TranslateCoords(x, y)
}

// Block возвращает id блока в клетке
func (b *Blocks) Block(x, y int32) (ID, error) {
	i, err := b.index(x, y)
	if err != nil {
		return 0, err
	}
	return b.data.ids[i], nil
}

// TypeAt возвращает тип блока в клетке
func (b *Blocks) TypeAt(x, y int32) (Type, error) {
	id, err := b.Block(x, y)
	if err != nil {
		return Type{}, err
	}
	return b.registry.Get(id)
}

func (b *Blocks) typeAt(x, y int32) (*Type, error) {
	id, err := b.Block(x, y)
	if err != nil {
		return nil, err
	}
	return b.registry.typ(id)
}

// SetBigBlock - основная мутация клетки. Повторный вызов с теми же id и
// смещением ничего не делает и не порождает событий.
func (b *Blocks) SetBigBlock(ev world.Emitter, x, y int32, id ID, fromMain vec.Vec2) error {
	i, err := b.index(x, y)
	if err != nil {
		return err
	}
	if !b.registry.Valid(id) {
		return fmt.Errorf("%w: %d", world.ErrUnknownBlockType, id)
	}

	prev := b.data.ids[i]
	if prev == id && b.data.fromMain[i] == fromMain {
		return nil
	}

	delete(b.data.extra, i)
	b.data.ids[i] = id
	b.breaking.Remove(vec.New(x, y))
	if fromMain.IsZero() {
		delete(b.data.fromMain, i)
	} else {
		b.data.fromMain[i] = fromMain
	}

	size, err := b.InventorySize(x, y)
	if err != nil {
		return err
	}
	if size > 0 {
		b.data.inventory[i] = world.NewSlots(size)
	} else {
		delete(b.data.inventory, i)
	}

	ev.Emit(ChangeEvent{X: x, Y: y, Prev: prev})
	return nil
}

// SetBlock ставит обычный блок (смещение (0,0))
func (b *Blocks) SetBlock(ev world.Emitter, x, y int32, id ID) error {
	return b.SetBigBlock(ev, x, y, id, vec.Zero)
}

// FromMain возвращает смещение клетки от главной клетки
func (b *Blocks) FromMain(x, y int32) (vec.Vec2, error) {
	i, err := b.index(x, y)
	if err != nil {
		return vec.Zero, err
	}
	return b.data.fromMain[i], nil
}

// Data возвращает дополнительные данные блока, пустой срез если их нет
func (b *Blocks) Data(x, y int32) ([]byte, error) {
	i, err := b.index(x, y)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b.data.extra[i]...), nil
}

// SetData задаёт дополнительные данные. Пустые данные удаляют запись.
func (b *Blocks) SetData(x, y int32, data []byte) error {
	i, err := b.index(x, y)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		delete(b.data.extra, i)
		return nil
	}
	b.data.extra[i] = append([]byte(nil), data...)
	return nil
}

// InventorySize возвращает число слотов. Неглавные клетки слотов не имеют.
// Значение пересчитывается при каждом вызове.
func (b *Blocks) InventorySize(x, y int32) (int, error) {
	fm, err := b.FromMain(x, y)
	if err != nil {
		return 0, err
	}
	if !fm.IsZero() {
		return 0, nil
	}
	t, err := b.typeAt(x, y)
	if err != nil {
		return 0, err
	}
	return len(t.InventorySlots), nil
}

// Inventory возвращает копию инвентаря блока
func (b *Blocks) Inventory(x, y int32) (world.Slots, error) {
	i, err := b.index(x, y)
	if err != nil {
		return nil, err
	}
	inv := b.data.inventory[i].Clone()
	if inv == nil {
		inv = world.Slots{}
	}
	return inv, nil
}

// SetInventory заменяет инвентарь блока. Событие порождается только при
// фактическом изменении содержимого.
func (b *Blocks) SetInventory(ev world.Emitter, x, y int32, data world.Slots) error {
	i, err := b.index(x, y)
	if err != nil {
		return err
	}
	size, err := b.InventorySize(x, y)
	if err != nil {
		return err
	}
	if len(data) != size {
		return fmt.Errorf("%w: (%d,%d) ожидалось %d слотов, получено %d", world.ErrSizeMismatch, x, y, size, len(data))
	}
	if b.data.inventory[i].Equal(data) {
		return nil
	}
	if len(data) == 0 {
		delete(b.data.inventory, i)
	} else {
		b.data.inventory[i] = data.Clone()
	}
	ev.Emit(InventoryChangeEvent{X: x, Y: y})
	return nil
}

// MainCell возвращает координаты главной клетки блока, занимающего (x, y)
func (b *Blocks) MainCell(x, y int32) (int32, int32, error) {
	fm, err := b.FromMain(x, y)
	if err != nil {
		return 0, 0, err
	}
	return x - fm.X, y - fm.Y, nil
}

// BreakBlock ломает блок целиком: событие и воздух ставятся в главную клетку,
// остальные клетки осыпаются при обходе соседей.
func (b *Blocks) BreakBlock(ev world.Emitter, x, y int32) error {
	mx, my, err := b.MainCell(x, y)
	if err != nil {
		return err
	}
	prev, err := b.Block(mx, my)
	if err != nil {
		return err
	}
	ev.Emit(BreakEvent{X: mx, Y: my, Prev: prev})
	return b.SetBlock(ev, mx, my, b.Air())
}

// UpdateMulticell перепроверяет клетку большого блока. Если предшественник
// слева или сверху больше не тот же блок, клетка становится воздухом.
// Иначе достраиваются следующие клетки вправо и вниз. Дальнейшее
// распространение идёт через события ChangeEvent.
func (b *Blocks) UpdateMulticell(ev world.Emitter, x, y int32) error {
	id, err := b.Block(x, y)
	if err != nil {
		return err
	}
	t, err := b.registry.typ(id)
	if err != nil {
		return err
	}
	fm, err := b.FromMain(x, y)
	if err != nil {
		return err
	}

	if (fm.X > 0 && !b.holds(x-1, y, id)) || (fm.Y > 0 && !b.holds(x, y-1, id)) {
		return b.SetBlock(ev, x, y, b.Air())
	}

	if fm.X+1 < t.Width {
		if err := b.SetBigBlock(ev, x+1, y, id, vec.New(fm.X+1, fm.Y)); err != nil {
			return err
		}
	}
	if fm.Y+1 < t.Height {
		if err := b.SetBigBlock(ev, x, y+1, id, vec.New(fm.X, fm.Y+1)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Blocks) holds(x, y int32, id ID) bool {
	got, err := b.Block(x, y)
	return err == nil && got == id
}

// AreaIsAir проверяет, что прямоугольник width x height с углом (x, y),
// растущий вправо и вверх (y уменьшается), целиком из воздуха.
func (b *Blocks) AreaIsAir(x, y, width, height int32) (bool, error) {
	air := b.Air()
	for dx := int32(0); dx < width; dx++ {
		for dy := int32(0); dy < height; dy++ {
			id, err := b.Block(x+dx, y-dy)
			if err != nil {
				return false, err
			}
			if id != air {
				return false, nil
			}
		}
	}
	return true, nil
}

// Place ставит блок так, чтобы его нижний левый угол оказался в (x, y).
// Возвращает false, если место занято.
func (b *Blocks) Place(ev world.Emitter, x, y int32, id ID) (bool, error) {
	t, err := b.registry.typ(id)
	if err != nil {
		return false, err
	}
	free, err := b.AreaIsAir(x, y, t.Width, t.Height)
	if err != nil || !free {
		return false, err
	}
	if err := b.SetBlock(ev, x, y-t.Height+1, id); err != nil {
		return false, err
	}
	return true, nil
}
