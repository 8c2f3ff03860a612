// Package doublebuffer provides a two-slot pixel buffer that lets an acquisition
// goroutine write the next frame while a consumer reads the previous one.
//
// A DoubleBuffer does no locking of its own. The writer fills Back and calls
// Swap while holding the lock it shares with the reader, and the reader only
// touches Front under that same lock.
package doublebuffer

import "essaim.dev/kinect2/pixels"

type DoubleBuffer[P pixels.Pixel] struct {
	buffers   [2]pixels.Buffer[P]
	front     int
	allocated bool
}

// Allocate sizes both slots. Calls after the first are ignored until Deallocate.
func (d *DoubleBuffer[P]) Allocate(width, height, channels int) {
	if d.allocated {
		return
	}

	d.allocated = true
	d.buffers[0].Allocate(width, height, channels)
	d.buffers[1].Allocate(width, height, channels)
}

func (d *DoubleBuffer[P]) Deallocate() {
	if !d.allocated {
		return
	}

	d.allocated = false
	d.buffers[0].Clear()
	d.buffers[1].Clear()
}

func (d *DoubleBuffer[P]) IsAllocated() bool {
	return d.allocated
}

// Front returns the slot readers may use.
func (d *DoubleBuffer[P]) Front() *pixels.Buffer[P] {
	return &d.buffers[d.front]
}

// Back returns the slot the writer fills next.
func (d *DoubleBuffer[P]) Back() *pixels.Buffer[P] {
	return &d.buffers[1-d.front]
}

// Swap publishes the back slot. No pixel data is copied.
func (d *DoubleBuffer[P]) Swap() {
	d.front = 1 - d.front
}
