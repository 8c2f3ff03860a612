// Package pixels holds the typed pixel buffers moved between sensor streams and
// their consumers, and the pure conversions applied to them.
package pixels

import "fmt"

// Pixel is the sample type of a Buffer.
type Pixel interface {
	~uint8 | ~uint16
}

// Buffer is a tightly packed, row-major image of Width*Height*Channels samples.
type Buffer[P Pixel] struct {
	Width    int
	Height   int
	Channels int
	Pix      []P
}

func New[P Pixel](width, height, channels int) Buffer[P] {
	b := Buffer[P]{}
	b.Allocate(width, height, channels)
	return b
}

// Allocate sizes the buffer, reusing the existing storage when it is large enough.
func (b *Buffer[P]) Allocate(width, height, channels int) {
	n := width * height * channels
	if cap(b.Pix) >= n {
		b.Pix = b.Pix[:n]
	} else {
		b.Pix = make([]P, n)
	}

	b.Width = width
	b.Height = height
	b.Channels = channels
}

func (b *Buffer[P]) Clear() {
	*b = Buffer[P]{}
}

func (b Buffer[P]) IsAllocated() bool {
	return b.Width > 0 && b.Height > 0 && b.Pix != nil
}

func (b Buffer[P]) Len() int {
	return b.Width * b.Height * b.Channels
}

// SetFrom copies src into the buffer, resizing it to the given shape.
func (b *Buffer[P]) SetFrom(src []P, width, height, channels int) error {
	if n := width * height * channels; len(src) < n {
		return fmt.Errorf("source holds %d samples, %dx%dx%d needs %d", len(src), width, height, channels, n)
	}

	b.Allocate(width, height, channels)
	copy(b.Pix, src)
	return nil
}

func (b *Buffer[P]) CopyFrom(src Buffer[P]) {
	b.Allocate(src.Width, src.Height, src.Channels)
	copy(b.Pix, src.Pix)
}

func (b Buffer[P]) Clone() Buffer[P] {
	c := Buffer[P]{}
	if b.Pix == nil {
		return c
	}
	c.CopyFrom(b)
	return c
}
