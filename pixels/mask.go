package pixels

const (
	// PlayerIndexLimit is the first body-index value that is not a tracked player.
	PlayerIndexLimit = 6

	PlayerValue     uint16 = 0
	BackgroundValue uint16 = MaxValue
)

// BodyIndexValue returns the mask sample for one raw body-index byte.
func BodyIndexValue(index uint8) uint16 {
	if index < PlayerIndexLimit {
		return PlayerValue
	}
	return BackgroundValue
}

// BodyIndexMask thresholds raw body-index bytes into a two-valued mask.
// dst must be at least as long as src.
func BodyIndexMask(src []uint8, dst []uint16) {
	for i, index := range src {
		dst[i] = BodyIndexValue(index)
	}
}
