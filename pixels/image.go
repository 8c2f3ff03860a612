package pixels

import (
	"image"
)

// ToRGBA copies an 8-bit buffer with 1, 3 or 4 channels into a new RGBA image.
func ToRGBA(b Buffer[uint8]) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	if !b.IsAllocated() {
		return img
	}

	switch b.Channels {
	case 4:
		copy(img.Pix, b.Pix)
	case 3:
		for i, o := 0, 0; i < b.Len(); i, o = i+3, o+4 {
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = b.Pix[i], b.Pix[i+1], b.Pix[i+2], 255
		}
	case 1:
		for i, v := range b.Pix[:b.Len()] {
			o := i * 4
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = v, v, v, 255
		}
	}

	return img
}

// ToGray16 copies the first channel of a 16-bit buffer into a new Gray16 image.
func ToGray16(b Buffer[uint16]) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, b.Width, b.Height))
	if !b.IsAllocated() || b.Channels < 1 {
		return img
	}

	for i := 0; i < b.Width*b.Height; i++ {
		v := b.Pix[i*b.Channels]
		img.Pix[i*2] = uint8(v >> 8)
		img.Pix[i*2+1] = uint8(v)
	}

	return img
}
