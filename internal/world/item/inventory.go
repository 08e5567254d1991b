package item

import (
	"fmt"

	"github.com/annel0/sandbox-world/internal/world"
)

// Inventory - инвентарь игрока с выбранным слотом
type Inventory struct {
	slots    world.Slots
	selected int
}

// NewInventory создаёт инвентарь на size слотов
func NewInventory(size int) *Inventory {
	return &Inventory{slots: world.NewSlots(size)}
}

// Size возвращает число слотов
func (inv *Inventory) Size() int { return len(inv.slots) }

// Item возвращает копию стопки в слоте
func (inv *Inventory) Item(i int) (*world.ItemStack, error) {
	if i < 0 || i >= len(inv.slots) {
		return nil, fmt.Errorf("%w: слот %d", world.ErrOutOfBounds, i)
	}
	if inv.slots[i] == nil {
		return nil, nil
	}
	s := *inv.slots[i]
	return &s, nil
}

// SetItem кладёт стопку в слот. Стопка с Count <= 0 очищает слот.
func (inv *Inventory) SetItem(i int, stack *world.ItemStack) error {
	if i < 0 || i >= len(inv.slots) {
		return fmt.Errorf("%w: слот %d", world.ErrOutOfBounds, i)
	}
	if stack == nil || stack.Count <= 0 {
		inv.slots[i] = nil
		return nil
	}
	s := *stack
	inv.slots[i] = &s
	return nil
}

// Select выбирает активный слот
func (inv *Inventory) Select(i int) error {
	if i < 0 || i >= len(inv.slots) {
		return fmt.Errorf("%w: слот %d", world.ErrOutOfBounds, i)
	}
	inv.selected = i
	return nil
}

// SelectedSlot возвращает номер активного слота
func (inv *Inventory) SelectedSlot() int { return inv.selected }

// Selected возвращает копию стопки в активном слоте
func (inv *Inventory) Selected() *world.ItemStack {
	if len(inv.slots) == 0 {
		return nil
	}
	s, _ := inv.Item(inv.selected)
	return s
}

// TakeSelected уменьшает активную стопку на n, опустевший слот очищается.
func (inv *Inventory) TakeSelected(n int32) bool {
	s := inv.Selected()
	if s == nil || s.Count < n {
		return false
	}
	s.Count -= n
	_ = inv.SetItem(inv.selected, s)
	return true
}

// Add раскладывает предметы по слотам с учётом maxStack. Возвращает остаток.
func (inv *Inventory) Add(item world.ItemID, count, maxStack int32) int32 {
	for _, s := range inv.slots {
		if count == 0 {
			return 0
		}
		if s != nil && s.Item == item && s.Count < maxStack {
			n := min(maxStack-s.Count, count)
			s.Count += n
			count -= n
		}
	}
	for i := range inv.slots {
		if count == 0 {
			return 0
		}
		if inv.slots[i] == nil {
			n := min(maxStack, count)
			inv.slots[i] = world.NewItemStack(item, n)
			count -= n
		}
	}
	return count
}

// Count возвращает общее число предметов данного типа
func (inv *Inventory) Count(item world.ItemID) int32 {
	var total int32
	for _, s := range inv.slots {
		if s != nil && s.Item == item {
			total += s.Count
		}
	}
	return total
}

// Slots возвращает копию слотов
func (inv *Inventory) Slots() world.Slots {
	return inv.slots.Clone()
}
