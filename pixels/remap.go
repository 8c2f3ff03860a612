package pixels

import "math"

const (
	// MaxValue is the top of the remapped 16-bit output range.
	MaxValue = math.MaxUint16
)

// RemapValue linearly maps v from [near, far] onto [0, MaxValue], clamping at
// both ends. When near is greater than far the mapping is decreasing. A zero
// width input range maps everything to 0.
func RemapValue(v uint16, near, far int) uint16 {
	if near == far {
		return 0
	}

	out := (float64(v) - float64(near)) / (float64(far) - float64(near)) * MaxValue
	if out <= 0 {
		return 0
	}
	if out >= MaxValue {
		return MaxValue
	}

	return uint16(out)
}

// RemapDepth rescales every sample of src into dst. With invert set, near and
// far are swapped before mapping so close samples come out bright.
func RemapDepth(src Buffer[uint16], dst *Buffer[uint16], near, far int, invert bool) {
	if invert {
		near, far = far, near
	}

	dst.Allocate(src.Width, src.Height, src.Channels)
	for i, v := range src.Pix[:src.Len()] {
		dst.Pix[i] = RemapValue(v, near, far)
	}
}
