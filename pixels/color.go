package pixels

import (
	"fmt"
	"image/color"
)

// BGRAToRGBA swaps the red and blue channels of src into dst.
func BGRAToRGBA(src, dst []byte) error {
	if len(src)%4 != 0 {
		return fmt.Errorf("the length of a BGRA buffer must be a multiple of 4, got %d", len(src))
	}
	if len(dst) < len(src) {
		return fmt.Errorf("destination holds %d bytes, need %d", len(dst), len(src))
	}

	for i := 0; i < len(src); i += 4 {
		dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
	}

	return nil
}

// YUY2ToRGBA converts packed 4:2:2 Y0 U Y1 V samples into opaque RGBA.
func YUY2ToRGBA(src, dst []byte) error {
	if len(src)%4 != 0 {
		return fmt.Errorf("the length of a YUY2 buffer must be a multiple of 4, got %d", len(src))
	}
	if len(dst) < len(src)*2 {
		return fmt.Errorf("destination holds %d bytes, need %d", len(dst), len(src)*2)
	}

	o := 0
	for i := 0; i < len(src); i += 4 {
		y0, u, y1, v := src[i], src[i+1], src[i+2], src[i+3]

		r, g, b := color.YCbCrToRGB(y0, u, v)
		dst[o], dst[o+1], dst[o+2], dst[o+3] = r, g, b, 255

		r, g, b = color.YCbCrToRGB(y1, u, v)
		dst[o+4], dst[o+5], dst[o+6], dst[o+7] = r, g, b, 255

		o += 8
	}

	return nil
}
