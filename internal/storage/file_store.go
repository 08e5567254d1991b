package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/annel0/sandbox-world/internal/codec"
)

// WorldFileName - имя файла сохранения в каталоге мира
const WorldFileName = "world.sbw"

var fileMagic = []byte("SBW1")

// MaxWorldFileSize - потолок распакованного содержимого файла сохранения
const MaxWorldFileSize = 1 << 30

// FileStore хранит мир одним файлом: сигнатура и секции, сжатые zstd.
// Запись атомарна: временный файл переименовывается поверх старого.
type FileStore struct {
	dir string
}

// NewFileStore создаёт хранилище в каталоге dir. Каталог создаётся при первом сохранении.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path возвращает путь к файлу сохранения
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, WorldFileName)
}

// Load читает все секции
func (s *FileStore) Load(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrWorldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", s.Path(), err)
	}
	if !bytes.HasPrefix(data, fileMagic) {
		return nil, fmt.Errorf("файл %s не является сохранением мира", s.Path())
	}
	raw, err := codec.DecompressZstd(data[len(fileMagic):], MaxWorldFileSize)
	if err != nil {
		return nil, fmt.Errorf("файл %s: %w", s.Path(), err)
	}
	return DecodeSections(raw)
}

// Save записывает секции
func (s *FileStore) Save(ctx context.Context, sections map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %s: %w", s.dir, err)
	}

	body, err := codec.CompressZstd(EncodeSections(sections))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, WorldFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("временный файл: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(fileMagic); err == nil {
		_, err = tmp.Write(body)
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("запись %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("замена %s: %w", s.Path(), err)
	}
	return nil
}

// Close ничего не делает: файл открывается только на время операции
func (s *FileStore) Close() error { return nil }
