package ffmpeg

import "fmt"

// ScaleFilter returns the two-step video filter used at assembly: fit inside
// maxW×maxH without upscaling and keeping the aspect ratio, then truncate both
// sides to even numbers for 4:2:0 chroma.
func ScaleFilter(maxW, maxH int) string {
	return fmt.Sprintf(
		"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease,scale=trunc(iw/2)*2:trunc(ih/2)*2",
		maxW, maxH,
	)
}

// FitDimensions computes the frame size ScaleFilter produces for a w×h input,
// following ffmpeg's force_original_aspect_ratio=decrease arithmetic.
func FitDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	boxW := min(maxW, w)
	boxH := min(maxH, h)

	outW := min(rescale(boxH, w, h), boxW)
	outH := min(rescale(boxW, h, w), boxH)

	return outW &^ 1, outH &^ 1
}

// rescale returns a*b/c rounded to the nearest integer, halves away from zero.
func rescale(a, b, c int) int {
	n := int64(a) * int64(b)
	return int((n + int64(c)/2) / int64(c))
}
