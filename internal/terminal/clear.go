// Package terminal provides small helpers for interactive terminal input and
// for cleaning up what it leaves on screen.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// Width returns the width of the terminal behind fd, or 80 when fd is not a
// terminal.
func Width(fd int) int {
	if width, _, err := term.GetSize(fd); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}

// linesFor is how many lines are left to clear after textLength characters
// were typed into a terminal width columns wide and Enter was pressed.
func linesFor(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	totalLines := int(math.Ceil(float64(textLength) / float64(width)))
	if totalLines < 1 {
		totalLines = 1
	}
	// Enter leaves the cursor on a fresh line below the input.
	return totalLines + 1
}

// ClearPreviousLines erases a prompt and its answer from stdout.
//
// textLength is the prompt plus the typed input, in characters.
func ClearPreviousLines(textLength int) {
	clearLines(os.Stdout, linesFor(textLength, Width(int(os.Stdout.Fd()))))
}

func clearLines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
