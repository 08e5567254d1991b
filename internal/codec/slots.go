package codec

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/annel0/sandbox-world/internal/world"
)

// Слот кодируется вложенным сообщением: 1 - флаг наличия, 2 - предмет, 3 - количество.
// Пустой слот - сообщение без полей.

// AppendSlots дописывает слоты повторяющимся полем num
func AppendSlots(b []byte, num protowire.Number, slots world.Slots) []byte {
	for _, s := range slots {
		var m []byte
		if s != nil {
			m = AppendBool(m, 1, true)
			m = AppendInt(m, 2, int32(s.Item))
			m = AppendInt(m, 3, s.Count)
		}
		b = AppendBytes(b, num, m)
	}
	return b
}

// DecodeSlot разбирает один слот
func DecodeSlot(b []byte) (*world.ItemStack, error) {
	var present bool
	var st world.ItemStack
	err := Walk(b, func(f Field) error {
		switch f.Num {
		case 1:
			present = f.Bool()
		case 2:
			st.Item = world.ItemID(f.Int32())
		case 3:
			st.Count = f.Int32()
		}
		return nil
	})
	if err != nil || !present {
		return nil, err
	}
	return &st, nil
}
