// Package color derives placeholder avatar colors for profiles without an image.
package color

import (
	"fmt"
	"hash/fnv"
	"math"
)

const (
	avatarSaturation = 0.45
	avatarLightness  = 0.6
)

// ForUser returns a stable "#RRGGBB" color for userID. The hue comes from an
// FNV hash of the id; saturation and lightness are fixed so white initials
// stay readable on every color.
func ForUser(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	hue := float64(h.Sum32() % 360)

	r, g, b := hsl(hue, avatarSaturation, avatarLightness)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// hsl converts hue (degrees), saturation and lightness (0..1) to 8-bit RGB.
func hsl(hue, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := l - c/2

	var r1, g1, b1 float64
	switch {
	case hue < 60:
		r1, g1 = c, x
	case hue < 120:
		r1, g1 = x, c
	case hue < 180:
		g1, b1 = c, x
	case hue < 240:
		g1, b1 = x, c
	case hue < 300:
		r1, b1 = x, c
	default:
		r1, b1 = c, x
	}

	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return to8(r1), to8(g1), to8(b1)
}
