package codec

import (
	"bytes"
	"encoding/binary"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/world"
)

func TestWalkFields(t *testing.T) {
	var b []byte
	b = AppendInt(b, 1, -7)
	b = AppendUint(b, 2, 300)
	b = AppendString(b, 3, "stone")
	b = AppendBool(b, 4, true)
	b = AppendInt(b, 5, 0)

	got := map[int]Field{}
	require.NoError(t, Walk(b, func(f Field) error {
		got[int(f.Num)] = f
		return nil
	}))
	assert.Equal(t, int32(-7), got[1].Int32(), "zigzag")
	assert.Equal(t, uint32(300), got[2].Uint32())
	assert.Equal(t, "stone", string(got[3].Bytes))
	assert.True(t, got[4].Bool())
	_, ok := got[5]
	assert.False(t, ok, "Нулевые значения не пишутся")
}

func TestWalkTruncated(t *testing.T) {
	b := AppendString(nil, 1, "hello")
	assert.Error(t, Walk(b[:len(b)-2], func(Field) error { return nil }), "Обрезанное сообщение")
}

func TestSlotsEncoding(t *testing.T) {
	slots := world.Slots{world.NewItemStack(3, 10), nil, world.NewItemStack(0, 1)}
	b := AppendSlots(nil, 1, slots)

	var decoded world.Slots
	require.NoError(t, Walk(b, func(f Field) error {
		s, err := DecodeSlot(f.Bytes)
		decoded = append(decoded, s)
		return err
	}))
	assert.True(t, slots.Equal(decoded), "Слоты совпадают, включая пустые и предмет с id 0")
}

func TestCompression(t *testing.T) {
	raw := bytes.Repeat([]byte("block"), 1000)

	snap := CompressSnapshot(raw)
	assert.Less(t, len(snap), len(raw))
	back, err := DecompressSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	z, err := CompressZstd(raw)
	require.NoError(t, err)
	back, err = DecompressZstd(z, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = DecompressSnapshot([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err, "Мусор не распаковывается")
}

// zstdFrameDeclaring - кадр zstd из одного байта, заголовок которого заявляет declared байт
func zstdFrameDeclaring(declared uint64) []byte {
	frame := []byte{0x28, 0xB5, 0x2F, 0xFD, 0xE0}
	frame = binary.LittleEndian.AppendUint64(frame, declared)
	return append(frame, 0x09, 0x00, 0x00, 'x')
}

func TestDecompressZstdLimit(t *testing.T) {
	raw := bytes.Repeat([]byte("wall"), 4096)
	z, err := CompressZstd(raw)
	require.NoError(t, err)

	_, err = DecompressZstd(z, len(raw)-1)
	assert.ErrorIs(t, err, ErrTooLarge, "данные больше лимита не распаковываются")

	back, err := DecompressZstd(z, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = DecompressZstd(z, 0)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecompressZstdDeclaredSizeNotAllocated(t *testing.T) {
	frame := zstdFrameDeclaring(500 << 20)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := DecompressZstd(frame, 16<<20)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(8<<20),
		"заявленный в заголовке размер не должен выделяться")
}
