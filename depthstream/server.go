package depthstream

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"

	"essaim.dev/kinect2/pixels"
)

const (
	defaultDepthThreshold = 2000
	defaultInterval       = time.Second / 30
)

// Source is the depth stream the server publishes, see kinect.DepthStream.
type Source interface {
	FrontPixels() pixels.Buffer[uint16]
	Timestamp() time.Duration
}

type ServerOption func(*Server)

// WithInterval sets how often the source is polled for a new frame.
func WithInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		s.interval = d
	}
}

func WithClock(c clock.Clock) ServerOption {
	return func(s *Server) {
		s.clock = c
	}
}

func WithLogger(logger *logrus.Entry) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

type Server struct {
	conn   *net.UDPConn
	source Source

	clock    clock.Clock
	interval time.Duration
	logger   *logrus.Entry

	depthThresholdMu sync.RWMutex
	depthThreshold   uint16

	encoder *zstd.Encoder

	last time.Duration
}

func NewServer(addr netip.AddrPort, source Source, opts ...ServerOption) (*Server, error) {
	conn, err := net.DialUDP("udp4", nil, net.UDPAddrFromAddrPort(addr))
	if err != nil {
		return nil, fmt.Errorf("could not dial udp address: %w", err)
	}
	conn.SetWriteBuffer(maxPacketSize)

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not create encoder: %w", err)
	}

	s := &Server{
		conn:           conn,
		source:         source,
		clock:          clock.New(),
		interval:       defaultInterval,
		logger:         logrus.WithField("component", "depthstream-server"),
		depthThreshold: defaultDepthThreshold,
		encoder:        encoder,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Server) Close() error {
	s.encoder.Close()
	return s.conn.Close()
}

func (s *Server) SetDepthThreshold(threshold uint16) {
	s.depthThresholdMu.Lock()
	defer s.depthThresholdMu.Unlock()

	s.depthThreshold = threshold
}

func (s *Server) DepthThreshold() uint16 {
	s.depthThresholdMu.RLock()
	defer s.depthThresholdMu.RUnlock()

	return s.depthThreshold
}

// Run publishes every new frame of the source until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.publish(); err != nil {
				s.logger.WithError(err).Warn("Could not publish depth mask")
			}
		}
	}
}

func (s *Server) publish() error {
	ts := s.source.Timestamp()
	if ts == 0 || ts == s.last {
		return nil
	}

	depth := s.source.FrontPixels()
	if !depth.IsAllocated() {
		return nil
	}
	s.last = ts

	mask := Mask(depth.Pix[:depth.Width*depth.Height], s.DepthThreshold())

	packet, err := encodePacket(s.encoder, depth.Width, depth.Height, mask)
	if err != nil {
		return err
	}

	if _, err := s.conn.Write(packet); err != nil {
		return fmt.Errorf("could not send depth mask: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"timestamp": ts,
		"bytes":     len(packet),
	}).Debug("Depth mask sent")
	return nil
}
