package kinect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essaim.dev/kinect2/sensor"
	"essaim.dev/kinect2/sensor/fake"
)

func newTestDevice(t *testing.T, opts ...fake.Option) *Device {
	t.Helper()

	d := NewDevice(WithCloseTimeout(time.Second), WithPollInterval(time.Millisecond))
	require.NoError(t, d.Setup(context.Background(), fake.New(opts...)))
	t.Cleanup(func() {
		d.Close()
	})

	return d
}

func TestDeviceSetupUnavailable(t *testing.T) {
	d := NewDevice()

	err := d.Setup(context.Background(), fake.New(fake.WithUnavailable()))
	assert.ErrorIs(t, err, sensor.ErrUnavailable)
	assert.False(t, d.IsOpen())

	s := NewDepthStream()
	assert.ErrorIs(t, s.Setup(d), ErrNotOpen)
	assert.Equal(t, 0, d.NumStreams())

	assert.ErrorIs(t, s.Open(), ErrNotSetup)
	assert.Equal(t, StateClosed, s.State())
}

func TestDeviceSetupNilBackend(t *testing.T) {
	d := NewDevice()

	assert.ErrorIs(t, d.Setup(context.Background(), nil), sensor.ErrUnavailable)
	assert.False(t, d.IsOpen())
	assert.NoError(t, d.Close())
}

func TestDeviceTeardown(t *testing.T) {
	backend := fake.New()
	d := NewDevice(WithCloseTimeout(time.Second))
	require.NoError(t, d.Setup(context.Background(), backend))
	require.True(t, d.IsOpen())

	color := NewColorStream(WithFPS(100))
	depth := NewDepthStream(WithFPS(100))
	bodies := NewBodyStream(WithFPS(100))

	for _, s := range []interface {
		Setup(*Device) error
		Open() error
	}{color, depth, bodies} {
		require.NoError(t, s.Setup(d))
		require.NoError(t, s.Open())
	}
	assert.Equal(t, 3, d.NumStreams())

	require.NoError(t, d.SetDepthColorSyncEnabled(true))
	assert.True(t, d.IsDepthColorSyncEnabled())

	require.NoError(t, d.Close())

	assert.Equal(t, 0, d.NumStreams())
	assert.False(t, d.IsOpen())
	assert.False(t, backend.IsOpen())
	assert.False(t, d.IsDepthColorSyncEnabled())
	assert.Equal(t, StateClosed, color.State())
	assert.Equal(t, StateClosed, depth.State())
	assert.Equal(t, StateClosed, bodies.State())
}

func TestDeviceTeardownAbortsOnInconsistency(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	d := NewDevice(WithLogger(logrus.NewEntry(logger)))
	require.NoError(t, d.Setup(context.Background(), fake.New()))

	s := NewDepthStream()
	require.NoError(t, s.Setup(d))

	// The stream forgets its device, so Exit can never deregister it.
	s.stateMu.Lock()
	s.device = nil
	s.stateMu.Unlock()

	require.NoError(t, d.Close())
	assert.Equal(t, 0, d.NumStreams())

	var aborted *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			aborted = entry
		}
	}
	require.NotNil(t, aborted)
	assert.Equal(t, maxTeardownAttempts, aborted.Data["attempts"])
}

func TestDeviceUpdateNotifiesListeners(t *testing.T) {
	d := newTestDevice(t)

	s := NewDepthStream()
	require.NoError(t, s.Setup(d))
	require.NoError(t, s.ReadFrame(sensor.Bundle{sensor.KindDepth: depthFrame(1, 1, 2, 3)}))

	var fresh []bool
	d.OnUpdate(func() {
		fresh = append(fresh, s.IsFrameNew())
	})

	d.Update()
	d.Update()

	assert.Equal(t, []bool{false, false}, fresh)
	assert.Equal(t, 3, s.Pixels().Len())
}

func TestDepthColorSync(t *testing.T) {
	d := NewDevice()
	assert.ErrorIs(t, d.SetDepthColorSyncEnabled(true), ErrNotOpen)
	assert.Nil(t, d.Mapper())

	require.NoError(t, d.Setup(context.Background(), fake.New()))
	defer d.Close()

	require.NoError(t, d.SetDepthColorSyncEnabled(true))
	require.NotNil(t, d.Mapper())
	assert.Equal(t, 640, d.Mapper().ColorFrameSize().X)

	require.NoError(t, d.SetDepthColorSyncEnabled(false))
	assert.Nil(t, d.Mapper())
}

type failingBackend struct {
	*fake.Backend
}

func (failingBackend) Close() error {
	return errors.New("usb gone")
}

func TestDeviceCloseAggregatesErrors(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.Setup(context.Background(), failingBackend{fake.New()}))

	err := d.Close()
	assert.ErrorContains(t, err, "usb gone")
	assert.False(t, d.IsOpen())
}
