// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a CSS hex color string: "#rgb", "#rrggbb" or "#rrggbbaa".
type Color string

// Black is the default annotation color.
const Black Color = "#000000"

// Parse converts the color to non-premultiplied RGBA. The leading '#' is
// optional.
func (c Color) Parse() (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(string(c)), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}) + "ff"
	case 6:
		s += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color %q", string(c))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", string(c))
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustParse is Parse for colors already validated at the parameter
// boundary. Unparseable colors fall back to opaque black.
func (c Color) MustParse() color.NRGBA {
	nrgba, err := c.Parse()
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return nrgba
}
