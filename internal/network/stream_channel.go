package network

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// streamFrames режет поток на кадры: 4 байта длины (LittleEndian) и тело.
// Подходит для TCP, KCP-сессий и net.Pipe.
type streamFrames struct {
	conn         net.Conn
	reader       *bufio.Reader
	maxFrameSize int
	writeTimeout time.Duration
}

// NewStreamFrames оборачивает потоковое соединение
func NewStreamFrames(conn net.Conn, config *ChannelConfig) FrameConn {
	if config == nil {
		config = DefaultChannelConfig()
	}
	return &streamFrames{
		conn:         conn,
		reader:       bufio.NewReaderSize(conn, 64*1024),
		maxFrameSize: config.MaxFrameSize,
		writeTimeout: config.WriteTimeout,
	}
}

func (s *streamFrames) ReadFrame() ([]byte, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(s.reader, lengthBuf[:]); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(lengthBuf[:])
	if length == 0 || int(length) > s.maxFrameSize {
		return nil, fmt.Errorf("%w: %d байт", ErrFrameTooLarge, length)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(s.reader, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (s *streamFrames) WriteFrame(frame []byte) error {
	if len(frame) > s.maxFrameSize {
		return fmt.Errorf("%w: %d байт", ErrFrameTooLarge, len(frame))
	}

	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}

	buf := make([]byte, 4+len(frame))
	binary.LittleEndian.PutUint32(buf, uint32(len(frame)))
	copy(buf[4:], frame)

	_, err := s.conn.Write(buf)
	return err
}

func (s *streamFrames) Close() error {
	return s.conn.Close()
}

func (s *streamFrames) RemoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "pipe"
}
