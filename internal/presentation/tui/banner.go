package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`             _`,
	` _ __   __ _| | __ ___   _____ _ __`,
	`| '_ \ / _` + "`" + ` | |/ _` + "`" + ` \ \ / / _ \ '__|`,
	`| |_) | (_| | | (_| |\ V /  __/ |`,
	`| .__/ \__,_|_|\__,_| \_/ \___|_|`,
	`|_|`,
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the palaver banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
