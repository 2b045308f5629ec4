package render

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ThemeConfig holds the drawing colors as hex strings ("#rrggbb" or "#rgb"). Empty fields use the
// default theme's color.
type ThemeConfig struct {
	Background string `json:"background,omitempty"`
	Lines      string `json:"lines,omitempty"`
	AxisX      string `json:"axis_x,omitempty"`
	AxisY      string `json:"axis_y,omitempty"`
	AxisZ      string `json:"axis_z,omitempty"`
	Points     string `json:"points,omitempty"`
	Pivot      string `json:"pivot,omitempty"`
	Text       string `json:"text,omitempty"`
}

// DefaultThemeConfig is a near-black background with white lines and red, green and blue axes.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		Background: "#101010",
		Lines:      "#ffffff",
		AxisX:      "#ff2020",
		AxisY:      "#20ff20",
		AxisZ:      "#2020ff",
		Points:     "#777777",
		Pivot:      "#77bbbb",
		Text:       "#eeeeee",
	}
}

// Theme is a parsed ThemeConfig.
type Theme struct {
	Background colorful.Color
	Lines      colorful.Color
	AxisX      colorful.Color
	AxisY      colorful.Color
	AxisZ      colorful.Color
	Points     colorful.Color
	Pivot      colorful.Color
	Text       colorful.Color
}

// DefaultTheme returns DefaultThemeConfig parsed.
func DefaultTheme() Theme {
	theme, err := DefaultThemeConfig().Parse()
	if err != nil {
		panic(err)
	}
	return theme
}

// Parse parses every color, reporting all malformed ones together.
func (tc ThemeConfig) Parse() (Theme, error) {
	def := DefaultThemeConfig()
	var errs error
	parse := func(name, value, fallback string) colorful.Color {
		if value == "" {
			value = fallback
		}
		if !strings.HasPrefix(value, "#") {
			value = "#" + value
		}
		c, err := colorful.Hex(value)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "invalid %s color %q", name, value))
		}
		return c
	}

	theme := Theme{
		Background: parse("background", tc.Background, def.Background),
		Lines:      parse("lines", tc.Lines, def.Lines),
		AxisX:      parse("axis_x", tc.AxisX, def.AxisX),
		AxisY:      parse("axis_y", tc.AxisY, def.AxisY),
		AxisZ:      parse("axis_z", tc.AxisZ, def.AxisZ),
		Points:     parse("points", tc.Points, def.Points),
		Pivot:      parse("pivot", tc.Pivot, def.Pivot),
		Text:       parse("text", tc.Text, def.Text),
	}
	return theme, errs
}

// Hex returns the theme as a ThemeConfig, e.g. for sending to a browser client.
func (t Theme) Hex() ThemeConfig {
	return ThemeConfig{
		Background: t.Background.Hex(),
		Lines:      t.Lines.Hex(),
		AxisX:      t.AxisX.Hex(),
		AxisY:      t.AxisY.Hex(),
		AxisZ:      t.AxisZ.Hex(),
		Points:     t.Points.Hex(),
		Pivot:      t.Pivot.Hex(),
		Text:       t.Text.Hex(),
	}
}
