// Package codec содержит общий бинарный формат (protobuf wire) и сжатие,
// которыми пользуются снимки мира, сетевые пакеты и файл сохранения.
package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field - одно поле сообщения в wire-формате
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

// Int32 декодирует zigzag-значение поля
func (f Field) Int32() int32 {
	return int32(protowire.DecodeZigZag(f.Varint))
}

// Uint32 возвращает varint как uint32
func (f Field) Uint32() uint32 {
	return uint32(f.Varint)
}

// Bool возвращает varint как bool
func (f Field) Bool() bool {
	return f.Varint != 0
}

// Walk обходит поля сообщения. Поддерживаются varint и length-delimited,
// прочие типы пропускаются.
func Walk(b []byte, fn func(f Field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("тег поля: %w", protowire.ParseError(n))
		}
		b = b[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("поле %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return fmt.Errorf("поле %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// AppendUint дописывает беззнаковое varint-поле. Нули не пишутся.
func AppendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendInt дописывает знаковое zigzag-поле. Нули не пишутся.
func AppendInt(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

// AppendBool дописывает флаг, false не пишется
func AppendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return AppendUint(b, num, 1)
}

// AppendBytes дописывает length-delimited поле (даже пустое)
func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendString дописывает строковое поле
func AppendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}
