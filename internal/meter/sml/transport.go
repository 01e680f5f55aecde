package sml

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/sigurn/crc16"
)

// Transport framing (SML transport protocol version 1).
//
//	1b1b1b1b 01010101 <body, 4-byte aligned> 1b1b1b1b 1a NN C1 C2
//
// NN is the number of fill bytes at the end of the body, C1 C2 the
// CRC-16/X-25 over every byte before them, low byte first. A body chunk
// equal to the escape sequence is sent twice.
var (
	escapeSeq = []byte{0x1b, 0x1b, 0x1b, 0x1b}
	startSeq  = []byte{0x01, 0x01, 0x01, 0x01}
)

const (
	chunkSize   = 4
	endMarker   = 0x1a
	maxFill     = 3
	defaultSize = 64 * 1024
)

var crcTable = crc16.MakeTable(crc16.CRC16_X_25)

// Checksum returns the CRC-16/X-25 of data as it appears on the wire,
// with the two bytes swapped relative to the standard algorithm output.
func Checksum(data []byte) uint16 {
	crc := crc16.Checksum(data, crcTable)
	return crc<<8 | crc>>8
}

// FrameReader extracts SML files from a transport byte stream.
//
// It is not safe for concurrent use.
type FrameReader struct {
	r       *bufio.Reader
	maxSize int
}

// NewFrameReader returns a FrameReader reading from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:       bufio.NewReader(r),
		maxSize: defaultSize,
	}
}

// Next returns the unescaped body of the next complete frame with fill
// bytes removed.
//
// Bytes before a start sequence are skipped. A frame whose checksum does
// not match returns ErrChecksum; the reader then resynchronises on the next
// start sequence, so callers may keep calling Next. At the end of the
// stream Next returns io.EOF or io.ErrUnexpectedEOF.
func (f *FrameReader) Next() ([]byte, error) {
	if err := f.sync(); err != nil {
		return nil, err
	}

	raw := make([]byte, 0, 512)
	raw = append(raw, escapeSeq...)
	raw = append(raw, startSeq...)
	var body []byte

	chunk := make([]byte, chunkSize)
	for {
		if len(raw) > f.maxSize {
			return nil, fmt.Errorf("%w: no end sequence within %d bytes", ErrFrameTooLarge, f.maxSize)
		}

		if _, err := io.ReadFull(f.r, chunk); err != nil {
			return nil, err
		}
		raw = append(raw, chunk...)

		if !bytes.Equal(chunk, escapeSeq) {
			body = append(body, chunk...)
			continue
		}

		if _, err := io.ReadFull(f.r, chunk); err != nil {
			return nil, err
		}
		raw = append(raw, chunk...)

		switch {
		case bytes.Equal(chunk, escapeSeq):
			body = append(body, escapeSeq...)

		case bytes.Equal(chunk, startSeq):
			// A new frame started before this one ended.
			raw = append(raw[:0], escapeSeq...)
			raw = append(raw, startSeq...)
			body = body[:0]

		case chunk[0] == endMarker:
			return finishFrame(raw, body, chunk)

		default:
			return nil, fmt.Errorf("%w: unknown escape % x", ErrInvalidFrame, chunk)
		}
	}
}

// finishFrame checks the trailer in end and strips fill bytes from body.
func finishFrame(raw, body, end []byte) ([]byte, error) {
	fill := int(end[1])
	want := uint16(end[2])<<8 | uint16(end[3])

	if got := Checksum(raw[:len(raw)-2]); got != want {
		return nil, fmt.Errorf("%w: got %04x, frame says %04x", ErrChecksum, got, want)
	}
	if fill > maxFill || fill > len(body) {
		return nil, fmt.Errorf("%w: fill count %d", ErrInvalidFrame, fill)
	}

	return body[:len(body)-fill], nil
}

// sync consumes bytes up to and including the next start sequence.
func (f *FrameReader) sync() error {
	var window [8]byte
	seen := 0
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return err
		}
		copy(window[:], window[1:])
		window[7] = b
		seen++

		if seen >= len(window) &&
			bytes.Equal(window[:4], escapeSeq) &&
			bytes.Equal(window[4:], startSeq) {
			return nil
		}
	}
}
