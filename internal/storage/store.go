// Package storage сохраняет и загружает мир как набор именованных секций
// (снимки сеток блоков, стен и метаданные).
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/sandbox-world/internal/codec"
)

// Имена секций сохранения
const (
	SectionMeta   = "meta"
	SectionBlocks = "blocks"
	SectionWalls  = "walls"
)

// ErrWorldNotFound - сохранения нет, мир нужно сгенерировать
var ErrWorldNotFound = errors.New("сохранение мира не найдено")

// SectionStore - хранилище секций мира. Save заменяет сохранение целиком.
type SectionStore interface {
	Load(ctx context.Context) (map[string][]byte, error)
	Save(ctx context.Context, sections map[string][]byte) error
	Close() error
}

// Поля контейнера секций
const (
	fieldSection     = 1
	fieldSectionName = 1
	fieldSectionData = 2
)

// EncodeSections упаковывает секции в один блок, упорядоченный по имени
func EncodeSections(sections map[string][]byte) []byte {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf []byte
	for _, name := range names {
		var entry []byte
		entry = codec.AppendString(entry, fieldSectionName, name)
		entry = codec.AppendBytes(entry, fieldSectionData, sections[name])
		buf = codec.AppendBytes(buf, fieldSection, entry)
	}
	return buf
}

// DecodeSections разбирает блок, созданный EncodeSections
func DecodeSections(data []byte) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := codec.Walk(data, func(f codec.Field) error {
		if f.Num != fieldSection {
			return nil
		}
		var name string
		var body []byte
		err := codec.Walk(f.Bytes, func(e codec.Field) error {
			switch e.Num {
			case fieldSectionName:
				name = string(e.Bytes)
			case fieldSectionData:
				body = append([]byte(nil), e.Bytes...)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if name == "" {
			return fmt.Errorf("секция без имени")
		}
		out[name] = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("разбор секций: %w", err)
	}
	return out, nil
}
