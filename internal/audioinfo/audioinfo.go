// Package audioinfo describes the format of a parsed PCM audio stream and
// validates it.
package audioinfo

// Info describes the format of a single-channel (or, with a diagnostic
// warning, multi-channel) PCM audio stream.
type Info struct {
	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16
	TotalSamples  uint32
}

// IsValid reports whether info describes a usable audio stream: a
// positive sample rate, a supported bit depth, and at least one channel.
func IsValid(info Info) bool {
	if info.SampleRate == 0 {
		return false
	}
	switch info.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return false
	}
	return info.NumChannels >= 1
}
