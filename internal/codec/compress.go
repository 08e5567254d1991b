package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// CompressSnapshot сжимает снимок сетки в snappy-совместимом формате
func CompressSnapshot(raw []byte) []byte {
	return s2.EncodeSnappy(nil, raw)
}

// DecompressSnapshot распаковывает снимок
func DecompressSnapshot(data []byte) ([]byte, error) {
	raw, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("распаковка снимка: %w", err)
	}
	return raw, nil
}

// ErrTooLarge - распакованные данные превысили бы заданный лимит
var ErrTooLarge = errors.New("распакованные данные превышают лимит")

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdErr  error

	// Декодеры по лимиту: у каждого свой потолок памяти и окна
	zstdDecoders sync.Map
)

func zstdEncoder() (*zstd.Encoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return zstdEnc, zstdErr
}

func zstdDecoder(limit uint64) (*zstd.Decoder, error) {
	if d, ok := zstdDecoders.Load(limit); ok {
		return d.(*zstd.Decoder), nil
	}

	window := limit
	if window < zstd.MinWindowSize {
		window = zstd.MinWindowSize
	}
	if window > zstd.MaxWindowSize {
		window = zstd.MaxWindowSize
	}
	d, err := zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(limit),
		zstd.WithDecoderMaxWindow(window),
	)
	if err != nil {
		return nil, err
	}
	actual, loaded := zstdDecoders.LoadOrStore(limit, d)
	if loaded {
		d.Close()
	}
	return actual.(*zstd.Decoder), nil
}

// CompressZstd сжимает блок данных целиком (EncodeAll потокобезопасен)
func CompressZstd(raw []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecompressZstd распаковывает блок, сжатый CompressZstd. Результат больше limit
// байт отвергается до выделения памяти: размер из заголовка кадра сверяется заранее.
func DecompressZstd(data []byte, limit int) ([]byte, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: лимит %d", ErrTooLarge, limit)
	}

	var h zstd.Header
	if err := h.Decode(data); err != nil {
		return nil, fmt.Errorf("распаковка zstd: %w", err)
	}
	if h.HasFCS && h.FrameContentSize > uint64(limit) {
		return nil, fmt.Errorf("%w: заявлено %d байт при лимите %d", ErrTooLarge, h.FrameContentSize, limit)
	}

	dec, err := zstdDecoder(uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}
	raw, err := dec.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("распаковка zstd: %w", err)
	}
	return raw, nil
}
