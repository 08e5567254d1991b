package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSections() map[string][]byte {
	return map[string][]byte{
		SectionMeta:   []byte("meta"),
		SectionBlocks: {1, 2, 3, 0, 0, 0, 4},
		SectionWalls:  {},
	}
}

func checkStore(t *testing.T, s SectionStore) {
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrWorldNotFound, "пустое хранилище - мира нет")

	require.NoError(t, s.Save(ctx, testSections()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("meta"), got[SectionMeta])
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 4}, got[SectionBlocks])
	assert.Empty(t, got[SectionWalls])

	// Повторное сохранение заменяет набор секций целиком
	require.NoError(t, s.Save(ctx, map[string][]byte{SectionBlocks: {9}}))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{SectionBlocks: {9}}, got)
}

func TestSectionsEncoding(t *testing.T) {
	a := EncodeSections(testSections())
	b := EncodeSections(testSections())
	assert.Equal(t, a, b, "кодирование детерминировано")

	got, err := DecodeSections(a)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = DecodeSections([]byte{0x0a, 0x05, 0x01})
	assert.Error(t, err, "обрезанные данные должны давать ошибку")
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "world")
	s := NewFileStore(dir)
	defer s.Close()
	checkStore(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "временные файлы не остаются")
	assert.Equal(t, WorldFileName, entries[0].Name())
}

func TestFileStoreCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, WorldFileName), []byte("garbage"), 0o644))

	_, err := NewFileStore(dir).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWorldNotFound, "битый файл - это не отсутствие мира")
}

func TestFileStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFileStore(t.TempDir()).Save(ctx, testSections())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	defer s.Close()
	checkStore(t, s)

	require.NoError(t, s.Close())
	_, err = s.Load(context.Background())
	assert.Error(t, err, "закрытое хранилище")
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("GAME_TEST_REDIS")
	if addr == "" {
		t.Skip("GAME_TEST_REDIS не задан")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, &RedisConfig{Addr: addr, Key: "sandbox:test:" + t.Name()})
	require.NoError(t, err)
	defer s.Close()
	defer s.client.Del(ctx, s.key)
	s.client.Del(ctx, s.key)

	checkStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("GAME_TEST_MONGO")
	if uri == "" {
		t.Skip("GAME_TEST_MONGO не задан")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, &MongoConfig{URI: uri, Database: "sandbox_test", Key: t.Name()})
	require.NoError(t, err)
	defer s.Close()
	defer s.collection.Drop(ctx)
	_, _ = s.collection.DeleteMany(ctx, map[string]string{"_id": s.key})

	checkStore(t, s)
}

func TestMongoConfigDefaults(t *testing.T) {
	def := DefaultMongoConfig()
	assert.Equal(t, "mongodb://localhost:27017", def.URI)
	assert.Equal(t, "worlds", def.Collection)
	assert.NotEmpty(t, def.Key, "без ключа документ мира не найти")
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("GAME_TEST_MYSQL")
	if dsn == "" {
		t.Skip("GAME_TEST_MYSQL не задан")
	}
	ctx := context.Background()
	s, err := NewMySQLStore(ctx, dsn, t.Name())
	require.NoError(t, err)
	defer s.Close()
	defer s.db.ExecContext(ctx, `DELETE FROM world_sections WHERE world_key = ?`, s.key)
	_, err = s.db.ExecContext(ctx, `DELETE FROM world_sections WHERE world_key = ?`, s.key)
	require.NoError(t, err)

	checkStore(t, s)
}

func TestMySQLStoreBadDSN(t *testing.T) {
	_, err := NewMySQLStore(context.Background(), "не dsn", "")
	assert.Error(t, err, "некорректный DSN отклоняется до подключения")
}
