package depthstream

import (
	"context"
	"image/color"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"essaim.dev/kinect2/pixels"
)

func TestMask(t *testing.T) {
	depth := []uint16{100, 3000, 0, 2000, 1999, 5000, 10, 10, 1}

	mask := Mask(depth, 2000)
	require.Len(t, mask, 2)
	assert.Equal(t, byte(0b10011011), mask[0])
	assert.Equal(t, byte(0b10000000), mask[1])
	assert.Equal(t, 2, MaskSize(3, 3))
}

func TestPacket(t *testing.T) {
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer encoder.Close()
	decoder, err := newDecoder()
	require.NoError(t, err)
	defer decoder.Close()

	mask := Mask(make([]uint16, 512*424), 2000)
	mask[10] = 0xf0

	packet, err := encodePacket(encoder, 512, 424, mask)
	require.NoError(t, err)
	assert.Less(t, len(packet), len(mask))

	width, height, decoded, err := decodePacket(decoder, packet)
	require.NoError(t, err)
	assert.Equal(t, 512, width)
	assert.Equal(t, 424, height)
	assert.Equal(t, mask, decoded)
}

func TestPacketInvalid(t *testing.T) {
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer encoder.Close()
	decoder, err := newDecoder()
	require.NoError(t, err)
	defer decoder.Close()

	_, err = encodePacket(encoder, 4, 4, []byte{0})
	assert.ErrorIs(t, err, errInvalidPacket)

	_, _, _, err = decodePacket(decoder, []byte{1, 2})
	assert.ErrorIs(t, err, errInvalidPacket)

	packet, err := encodePacket(encoder, 4, 4, []byte{0, 0})
	require.NoError(t, err)
	packet[1] = 8 // claims 8x4
	_, _, _, err = decodePacket(decoder, packet)
	assert.ErrorIs(t, err, errInvalidPacket)

	_, _, _, err = decodePacket(decoder, []byte{0, 4, 0, 4, 'n', 'o', 'p', 'e'})
	assert.Error(t, err)

	_, _, _, err = decodePacket(decoder, []byte{0, 0, 0, 4, 0})
	assert.ErrorIs(t, err, errInvalidPacket)
}

func TestPacketOversizedPayload(t *testing.T) {
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer encoder.Close()
	decoder, err := newDecoder()
	require.NoError(t, err)
	defer decoder.Close()

	// An 8x8 header in front of a payload that inflates to 1 MiB.
	packet := []byte{0, 8, 0, 8}
	packet = encoder.EncodeAll(make([]byte, 1<<20), packet)
	require.Less(t, len(packet), maxPacketSize)

	var frame zstd.Header
	require.NoError(t, frame.Decode(packet[headerSize:]))
	require.True(t, frame.HasFCS)

	_, _, mask, err := decodePacket(decoder, packet)
	assert.ErrorIs(t, err, errInvalidPacket)
	assert.Nil(t, mask)
}

func TestClientRender(t *testing.T) {
	decoder, err := newDecoder()
	require.NoError(t, err)
	defer decoder.Close()
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer encoder.Close()

	c := &Client{decoder: decoder}

	packet, err := encodePacket(encoder, 3, 1, []byte{0b10000000})
	require.NoError(t, err)
	require.NoError(t, c.handlePacket(packet))

	img := c.RenderImage(colornames.Red)
	assert.Equal(t, 3, img.Bounds().Dx())
	// Mirrored: the set pixel is on the right.
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.At(2, 0))
	assert.Equal(t, color.NRGBA{A: 255}, img.At(0, 0))
}

type fakeSource struct {
	mu    sync.Mutex
	ts    time.Duration
	depth pixels.Buffer[uint16]
}

func (f *fakeSource) FrontPixels() pixels.Buffer[uint16] {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.depth.Clone()
}

func (f *fakeSource) Timestamp() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ts
}

func TestServerPublishes(t *testing.T) {
	listener, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	source := &fakeSource{
		ts:    time.Millisecond,
		depth: pixels.Buffer[uint16]{Width: 4, Height: 2, Channels: 1, Pix: []uint16{500, 500, 3000, 3000, 0, 0, 0, 1000}},
	}

	addr := listener.LocalAddr().(*net.UDPAddr).AddrPort()
	s, err := NewServer(netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), addr.Port()), source, WithInterval(time.Millisecond))
	require.NoError(t, err)
	defer s.Close()
	s.SetDepthThreshold(1000)
	assert.Equal(t, uint16(1000), s.DepthThreshold())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	b := make([]byte, maxPacketSize)
	n, err := listener.Read(b)
	require.NoError(t, err)

	cancel()
	require.NoError(t, <-done)

	decoder, err := newDecoder()
	require.NoError(t, err)
	defer decoder.Close()

	width, height, mask, err := decodePacket(decoder, b[:n])
	require.NoError(t, err)
	assert.Equal(t, 4, width)
	assert.Equal(t, 2, height)
	assert.Equal(t, []byte{0b11000001}, mask)
}
