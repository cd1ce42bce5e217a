package chart

import (
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme holds the colors shared by every panel; the line color comes from the asset
type Theme struct {
	Background drawing.Color
	Grid       drawing.Color
	Text       drawing.Color
	Title      drawing.Color
	Label      drawing.Color
	// FillAlpha is the opacity of the area under the line
	FillAlpha uint8
}

// DarkNavy is the dark blue theme the bot posts with
var DarkNavy = Theme{
	Background: drawing.ColorFromHex("0b1220"),
	Grid:       drawing.ColorFromHex("2a3345"),
	Text:       drawing.ColorFromHex("9aa4bf"),
	Title:      drawing.ColorWhite,
	Label:      drawing.ColorWhite,
	FillAlpha:  38,
}
