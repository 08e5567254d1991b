package world

// ItemID - идентификатор типа предмета
type ItemID int32

// ItemStack - стопка предметов в слоте инвентаря. Count > 0.
type ItemStack struct {
	Item  ItemID
	Count int32
}

// NewItemStack создаёт стопку
func NewItemStack(item ItemID, count int32) *ItemStack {
	return &ItemStack{Item: item, Count: count}
}

// Slots - упорядоченный список слотов, nil означает пустой слот
type Slots []*ItemStack

// NewSlots создаёт size пустых слотов
func NewSlots(size int) Slots {
	return make(Slots, size)
}

// Clone возвращает глубокую копию слотов
func (s Slots) Clone() Slots {
	if s == nil {
		return nil
	}
	out := make(Slots, len(s))
	for i, st := range s {
		if st != nil {
			c := *st
			out[i] = &c
		}
	}
	return out
}

// Equal сравнивает слоты по значению
func (s Slots) Equal(o Slots) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		a, b := s[i], o[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

// IsEmpty сообщает, что все слоты пусты
func (s Slots) IsEmpty() bool {
	for _, st := range s {
		if st != nil {
			return false
		}
	}
	return true
}
