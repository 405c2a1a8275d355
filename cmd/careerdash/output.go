package main

import (
	"fmt"
	"io"
	"os"

	"github.com/apexathon/careerdash/internal/recommend"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

func bandColor(b recommend.Band) string {
	switch b {
	case recommend.BandGreen:
		return colorGreen
	case recommend.BandBlue:
		return colorBlue
	case recommend.BandYellow:
		return colorYellow
	default:
		return colorRed
	}
}

// printCard writes one recommendation line: rank, title and a colored score.
func printCard(w io.Writer, r recommend.Recommendation) {
	score := colorize(bandColor(r.Band()), fmt.Sprintf("%d%%", r.RelevanceScore))
	fmt.Fprintf(w, "  %d. %s  %s match\n", r.ID, colorize(colorBold, r.Title), score)
}
