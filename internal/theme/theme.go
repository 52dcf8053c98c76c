// Package theme holds the color palettes of the quiz front ends. The active
// palette is chosen once from configuration and handed to whoever renders.
package theme

import (
	"fmt"
	"sort"
)

// Scheme names a palette.
type Scheme string

const (
	SchemeBlue  Scheme = "blue"
	SchemeGreen Scheme = "green"
)

// Palette is the set of colors used by a front end.
type Palette struct {
	Background       string `json:"backgroundColor" yaml:"background"`
	ButtonBackground string `json:"buttonBackground" yaml:"button_background"`
	ButtonBorder     string `json:"buttonBorder" yaml:"button_border"`
	Text             string `json:"textColor" yaml:"text"`
	InputBackground  string `json:"inputBackground" yaml:"input_background"`
	HighScoreText    string `json:"textHighscoreColor" yaml:"high_score_text"`
}

// Theme is a named palette.
type Theme struct {
	Scheme  Scheme  `json:"scheme"`
	Palette Palette `json:"palette"`
}

var palettes = map[Scheme]Palette{
	SchemeBlue: {
		Background:       "#000022",
		ButtonBackground: "rgba(230, 240, 255, 0.8)",
		ButtonBorder:     "#030e8c",
		Text:             "#030e8c",
		InputBackground:  "rgba(230, 240, 255, 0.8)",
		HighScoreText:    "rgb(230, 240, 255)",
	},
	SchemeGreen: {
		Background:       "#90EE90",
		ButtonBackground: "rgba(230, 255, 240, 0.8)",
		ButtonBorder:     "#1d4701",
		Text:             "#1d4701",
		InputBackground:  "rgba(230, 255, 240, 0.8)",
		HighScoreText:    "rgb(230, 255, 240)",
	},
}

// New returns the theme for scheme. An empty scheme falls back to green,
// like any scheme that is not blue on the device.
func New(scheme Scheme) (Theme, error) {
	if scheme == "" {
		scheme = SchemeGreen
	}
	p, ok := palettes[scheme]
	if !ok {
		return Theme{}, fmt.Errorf("theme: unknown scheme %q", scheme)
	}
	return Theme{Scheme: scheme, Palette: p}, nil
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	next := SchemeBlue
	if t.Scheme == SchemeBlue {
		next = SchemeGreen
	}
	return Theme{Scheme: next, Palette: palettes[next]}
}

// Schemes lists the known scheme names.
func Schemes() []Scheme {
	out := make([]Scheme, 0, len(palettes))
	for s := range palettes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ANSI returns a 24-bit terminal escape for the palette text color, or "" if the
// color is not a #rrggbb hex value.
func (p Palette) ANSI() string {
	var r, g, b int
	if _, err := fmt.Sscanf(p.Text, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

// Reset is the terminal escape that clears colors.
const Reset = "\x1b[0m"
