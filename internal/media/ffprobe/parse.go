package ffprobe

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is the token ffprobe prints for unknown numeric fields.
const Placeholder = "N/A"

// ParseCount parses an integer field. The placeholder, an empty token, or an
// unparseable token yields -1.
func ParseCount(token string) int64 {
	token = strings.TrimSpace(token)
	if token == "" || token == Placeholder {
		return -1
	}
	value, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return -1
	}
	return value
}

// ParseSeconds parses a floating field. The placeholder, an empty token, or an
// unparseable token yields 0.
func ParseSeconds(token string) float64 {
	token = strings.TrimSpace(token)
	if token == "" || token == Placeholder {
		return 0
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ParseFrameRate converts "num/den" or a plain decimal into frames per second.
// A zero denominator, the placeholder, or garbage yields 0.
func ParseFrameRate(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == Placeholder {
		return 0
	}
	num, den, ok := strings.Cut(text, "/")
	if !ok {
		return ParseSeconds(text)
	}
	numerator := ParseSeconds(num)
	denominator := ParseSeconds(den)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// ReconcileFrames chooses the authoritative total frame count, preferring the
// decode-based count, then the container count, then duration × fps rounded
// to the nearest frame. It returns 0 when nothing is known.
func ReconcileFrames(readFrames, containerFrames int64, duration, fps float64) int64 {
	switch {
	case readFrames > 0:
		return readFrames
	case containerFrames > 0:
		return containerFrames
	case duration > 0 && fps > 0:
		return int64(math.Round(duration * fps))
	default:
		return 0
	}
}
