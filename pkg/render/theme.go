package render

import (
	"image/color"
	"math"
)

// Theme holds every colour the renderer uses.
type Theme struct {
	Background color.NRGBA
	Grid       color.NRGBA
	Text       color.NRGBA
	Muted      color.NRGBA
	CountText  color.NRGBA
	Warning    color.NRGBA
	Glow       color.NRGBA
	Particle   color.NRGBA

	RepoPalette []color.NRGBA
	ToolPalette []color.NRGBA
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// DarkTheme is the default palette.
func DarkTheme() Theme {
	return Theme{
		Background: hex(0x0a0e14),
		Grid:       withAlpha(hex(0x252c3a), 0.7),
		Text:       hex(0xdce4f0),
		Muted:      hex(0x7a8599),
		CountText:  withAlpha(hex(0x0a0e14), 0.7),
		Warning:    hex(0xf46d6d),
		Glow:       hex(0x42d77d),
		Particle:   hex(0xeaf6ff),
		RepoPalette: []color.NRGBA{
			hex(0x42d77d), hex(0x2ec4b6), hex(0x8bd346), hex(0x4cc9f0),
			hex(0x3ddbd9), hex(0x6fdc8c), hex(0x08bdba), hex(0xa7f070),
		},
		ToolPalette: []color.NRGBA{
			hex(0x5eadfc), hex(0x9b8cff), hex(0xf7b955), hex(0xd38cf0),
			hex(0x78a9ff), hex(0xff9f6e), hex(0xbe95ff), hex(0x33b1ff),
		},
	}
}

// LightTheme suits PNG and SVG exports meant for documents.
func LightTheme() Theme {
	t := DarkTheme()
	t.Background = hex(0xf9fafb)
	t.Grid = withAlpha(hex(0xcfd8dc), 0.8)
	t.Text = hex(0x111111)
	t.Muted = hex(0x666666)
	t.CountText = withAlpha(hex(0xffffff), 0.85)
	t.Particle = hex(0x1f2937)
	return t
}

// NodeColor picks a palette entry for a kind's ordinal.
func (t Theme) NodeColor(tool bool, colorIndex int) color.NRGBA {
	p := t.RepoPalette
	if tool {
		p = t.ToolPalette
	}
	if len(p) == 0 {
		return t.Text
	}
	if colorIndex < 0 {
		colorIndex = -colorIndex
	}
	return p[colorIndex%len(p)]
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))
	return c
}

// scaleAlpha multiplies c's existing alpha by f.
func scaleAlpha(c color.NRGBA, f float64) color.NRGBA {
	return withAlpha(c, float64(c.A)/255*f)
}

// lighten mixes c toward white by f in [0,1].
func lighten(c color.NRGBA, f float64) color.NRGBA {
	mix := func(v uint8) uint8 { return uint8(math.Round(float64(v) + (255-float64(v))*f)) }
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}

// ThemeByName returns the named theme; anything but "light" is dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}
