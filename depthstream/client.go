package depthstream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
)

const readTimeout = 500 * time.Millisecond

type Client struct {
	conn *net.UDPConn

	decoder *zstd.Decoder
	logger  *logrus.Entry

	maskMu sync.RWMutex
	width  int
	height int
	mask   []byte
}

func NewClient(addr netip.AddrPort) (*Client, error) {
	conn, err := net.ListenMulticastUDP("udp4", nil, net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("could not listen on multicast address: %w", err)
	}
	conn.SetReadBuffer(maxPacketSize)

	decoder, err := newDecoder()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not create decoder: %w", err)
	}

	return &Client{
		conn:    conn,
		decoder: decoder,
		logger:  logrus.WithField("component", "depthstream-client"),
	}, nil
}

func (c *Client) Close() error {
	c.decoder.Close()
	return c.conn.Close()
}

// Run receives masks until ctx is done or the connection is closed.
func (c *Client) Run(ctx context.Context) error {
	b := make([]byte, maxPacketSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := c.conn.Read(b)
		if errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("connection closed: %w", err)
		}
		if err != nil {
			// Most likely a read timeout, check ctx again.
			continue
		}

		if err := c.handlePacket(b[:n]); err != nil {
			c.logger.WithError(err).Warn("Dropping packet")
		}
	}
}

func (c *Client) handlePacket(packet []byte) error {
	width, height, mask, err := decodePacket(c.decoder, packet)
	if err != nil {
		return err
	}

	c.maskMu.Lock()
	defer c.maskMu.Unlock()

	c.width, c.height, c.mask = width, height, mask
	return nil
}

// RenderImage draws the last received mask, set pixels in col and the rest
// black, mirrored so it reads like a mirror for people facing the sensor.
func (c *Client) RenderImage(col color.Color) image.Image {
	c.maskMu.RLock()
	img := maskToRGBA(c.width, c.height, c.mask, col)
	c.maskMu.RUnlock()

	return imaging.FlipH(img)
}

func maskToRGBA(width, height int, mask []byte, col color.Color) *image.RGBA {
	rgbaCol, _ := color.RGBAModel.Convert(col).(color.RGBA)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for idx := 0; idx < width*height && idx/8 < len(mask); idx++ {
		o := idx * 4
		if (mask[idx/8]>>(7-idx%8))&1 == 1 {
			img.Pix[o], img.Pix[o+1], img.Pix[o+2] = rgbaCol.R, rgbaCol.G, rgbaCol.B
		}
		img.Pix[o+3] = 255
	}

	return img
}
