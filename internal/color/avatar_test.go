package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexColor = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestForUser_Stable(t *testing.T) {
	a := ForUser("usr-V1StGXR8_Z5jdHi6B-myT")
	assert.Regexp(t, hexColor, a)
	assert.Equal(t, a, ForUser("usr-V1StGXR8_Z5jdHi6B-myT"))
	assert.Regexp(t, hexColor, ForUser(""))
}

func TestHSL(t *testing.T) {
	tests := []struct {
		hue     float64
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{120, 0, 255, 0},
		{240, 0, 0, 255},
	}
	for _, tt := range tests {
		r, g, b := hsl(tt.hue, 1, 0.5)
		assert.Equal(t, []uint8{tt.r, tt.g, tt.b}, []uint8{r, g, b}, "hue %v", tt.hue)
	}

	r, g, b := hsl(200, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}
