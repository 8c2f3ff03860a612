// Package depthstream publishes a thresholded depth mask over UDP multicast
// and renders it on the receiving side.
//
// A packet is a 4 byte header holding the mask width and height as big endian
// uint16, followed by the zstd compressed mask: one bit per pixel, row-major,
// most significant bit first.
package depthstream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const (
	headerSize = 4

	// maxPacketSize is the largest UDP payload over IPv4.
	maxPacketSize = 65507
)

// maxMaskSize is the mask of the largest frame a header can describe.
var maxMaskSize = MaskSize(0xffff, 0xffff)

var errInvalidPacket = errors.New("invalid packet")

// Mask sets the bit of every pixel with a known depth at or closer than
// threshold. Zero depth means no reading and stays off.
func Mask(depth []uint16, threshold uint16) []byte {
	output := make([]byte, (len(depth)+7)/8)

	for idx, value := range depth {
		if value == 0 || value > threshold {
			continue
		}
		output[idx/8] |= 1 << (7 - idx%8)
	}

	return output
}

// MaskSize is the number of bytes of a width x height mask.
func MaskSize(width, height int) int {
	return (width*height + 7) / 8
}

func encodePacket(encoder *zstd.Encoder, width, height int, mask []byte) ([]byte, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("could not encode %dx%d mask: %w", width, height, errInvalidPacket)
	}
	if len(mask) != MaskSize(width, height) {
		return nil, fmt.Errorf("could not encode mask of %d bytes as %dx%d: %w", len(mask), width, height, errInvalidPacket)
	}

	packet := make([]byte, headerSize, headerSize+len(mask))
	binary.BigEndian.PutUint16(packet[0:2], uint16(width))
	binary.BigEndian.PutUint16(packet[2:4], uint16(height))

	packet = encoder.EncodeAll(mask, packet)
	if len(packet) > maxPacketSize {
		return nil, fmt.Errorf("encoded mask is %d bytes, more than %d", len(packet), maxPacketSize)
	}

	return packet, nil
}

// newDecoder returns a decoder that never inflates past the largest mask.
func newDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxMaskSize)))
}

func decodePacket(decoder *zstd.Decoder, packet []byte) (width, height int, mask []byte, err error) {
	if len(packet) < headerSize {
		return 0, 0, nil, fmt.Errorf("packet of %d bytes: %w", len(packet), errInvalidPacket)
	}

	width = int(binary.BigEndian.Uint16(packet[0:2]))
	height = int(binary.BigEndian.Uint16(packet[2:4]))
	if width == 0 || height == 0 {
		return 0, 0, nil, fmt.Errorf("mask of %dx%d: %w", width, height, errInvalidPacket)
	}
	size := MaskSize(width, height)

	var frame zstd.Header
	if err := frame.Decode(packet[headerSize:]); err != nil {
		return 0, 0, nil, fmt.Errorf("could not decode mask header: %w", err)
	}
	if frame.HasFCS && frame.FrameContentSize != uint64(size) {
		return 0, 0, nil, fmt.Errorf("mask of %d bytes for %dx%d: %w", frame.FrameContentSize, width, height, errInvalidPacket)
	}

	mask, err = decoder.DecodeAll(packet[headerSize:], make([]byte, 0, size))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("could not decode mask: %w", err)
	}
	if len(mask) != size {
		return 0, 0, nil, fmt.Errorf("mask of %d bytes for %dx%d: %w", len(mask), width, height, errInvalidPacket)
	}

	return width, height, mask, nil
}
