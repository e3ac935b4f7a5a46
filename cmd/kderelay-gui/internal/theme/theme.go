package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the window colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Selected   color.NRGBA
	Primary    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
	Success    color.NRGBA
	Error      color.NRGBA
	Warning    color.NRGBA
}

// Config defines the window metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	SidebarWidth unit.Dp
	FontTitle    unit.Sp
	FontStatus   unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with platform styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{
		Theme: mtheme,
	}

	switch runtime.GOOS {
	case "windows":
		setupWindowsTheme(t)
	case "darwin":
		setupMacOSTheme(t)
	default:
		setupBreezeTheme(t)
	}

	t.Theme.Palette.Bg = t.Palette.Background
	t.Theme.Palette.Fg = t.Palette.Text
	t.Theme.Palette.ContrastBg = t.Palette.Primary
	t.Theme.Palette.ContrastFg = t.Palette.Text
	return t
}

// setupBreezeTheme follows the Plasma Breeze Dark color scheme.
func setupBreezeTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x23, B: 0x26, A: 0xFF},
		Surface:    color.NRGBA{R: 0x29, G: 0x2C, B: 0x30, A: 0xFF},
		Selected:   color.NRGBA{R: 0x1D, G: 0x54, B: 0x6F, A: 0xFF},
		Primary:    color.NRGBA{R: 0x3D, G: 0xAE, B: 0xE9, A: 0xFF},
		Text:       color.NRGBA{R: 0xFC, G: 0xFC, B: 0xFC, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA1, G: 0xA9, B: 0xB1, A: 0xFF},
		Border:     color.NRGBA{R: 0x3B, G: 0x40, B: 0x45, A: 0xFF},
		Success:    color.NRGBA{R: 0x27, G: 0xAE, B: 0x60, A: 0xFF},
		Error:      color.NRGBA{R: 0xDA, G: 0x44, B: 0x53, A: 0xFF},
		Warning:    color.NRGBA{R: 0xF6, G: 0x74, B: 0x00, A: 0xFF},
	}
	t.Config = Config{
		CornerRadius: unit.Dp(6),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		SidebarWidth: unit.Dp(220),
		FontTitle:    unit.Sp(20),
		FontStatus:   unit.Sp(28),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}

func setupWindowsTheme(t *Theme) {
	// Fluent dark
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
		Selected:   color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3A, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
		Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
		Border:     color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
		Success:    color.NRGBA{R: 0x6B, G: 0xBC, B: 0x0F, A: 0xFF},
		Error:      color.NRGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF},
		Warning:    color.NRGBA{R: 0xFF, G: 0xB9, B: 0x00, A: 0xFF},
	}
	t.Config = Config{
		CornerRadius: unit.Dp(4),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		SidebarWidth: unit.Dp(220),
		FontTitle:    unit.Sp(20),
		FontStatus:   unit.Sp(28),
		FontBody:     unit.Sp(14),
		FontCaption:  unit.Sp(12),
	}
}

func setupMacOSTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF},
		Surface:    color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xFF},
		Selected:   color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
		Primary:    color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF},
		Text:       color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0x86, G: 0x86, B: 0x8B, A: 0xFF},
		Border:     color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
		Success:    color.NRGBA{R: 0x30, G: 0xD1, B: 0x58, A: 0xFF},
		Error:      color.NRGBA{R: 0xFF, G: 0x45, B: 0x3A, A: 0xFF},
		Warning:    color.NRGBA{R: 0xFF, G: 0x9F, B: 0x0A, A: 0xFF},
	}
	t.Config = Config{
		CornerRadius: unit.Dp(10),
		Spacing:      unit.Dp(10),
		Padding:      unit.Dp(20),
		SidebarWidth: unit.Dp(240),
		FontTitle:    unit.Sp(22),
		FontStatus:   unit.Sp(28),
		FontBody:     unit.Sp(13),
		FontCaption:  unit.Sp(11),
	}
}
