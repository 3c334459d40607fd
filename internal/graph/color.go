package graph

import (
	"fmt"
	"math"
)

// rgb is one color of the scale.
type rgb struct {
	r, g, b float64
}

// heatStops run from cold to hot at intensities 0, 0.25, 0.5, 0.75 and 1.
var heatStops = [...]rgb{
	{59, 130, 246},
	{34, 197, 94},
	{234, 179, 8},
	{249, 115, 22},
	{239, 68, 68},
}

// segments is the number of interpolation intervals between heatStops. It is
// an untyped constant so it mixes with both float64 and int operands.
const segments = 4

// HeatColor maps an intensity in [0,1] to an "rgb(r, g, b)" string. Values
// outside the range are clamped and NaN is treated as 0.
func HeatColor(intensity float64) string {
	t := clamp01(intensity)

	segment := min(int(math.Floor(t*segments)), segments-1)
	local := t*segments - float64(segment)

	from, to := heatStops[segment], heatStops[segment+1]

	return fmt.Sprintf("rgb(%d, %d, %d)",
		lerp(from.r, to.r, local),
		lerp(from.g, to.g, local),
		lerp(from.b, to.b, local),
	)
}

// HeatStops returns the scale anchors as color strings, coldest first.
func HeatStops() []string {
	stops := make([]string, 0, len(heatStops))

	for i := range heatStops {
		stops = append(stops, HeatColor(float64(i)/segments))
	}

	return stops
}

// Intensity normalizes changes against maxChanges into [0,1]. A non-positive
// maxChanges yields 0.
func Intensity(changes, maxChanges int) float64 {
	if maxChanges <= 0 {
		return 0
	}

	return clamp01(float64(changes) / float64(maxChanges))
}

func lerp(from, to, t float64) int {
	return int(math.Round(from + (to-from)*t))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
