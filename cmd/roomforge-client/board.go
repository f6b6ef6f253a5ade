package main

import (
	"fmt"
	"strings"

	"github.com/tidegate/roomforge/internal/demo/tictactoe"
)

func markGlyph(m tictactoe.Mark) string {
	switch m {
	case tictactoe.MarkX:
		return "X"
	case tictactoe.MarkO:
		return "O"
	default:
		return "."
	}
}

// renderBoard draws tic-tac-toe's 9-cell board as three rows of three.
func renderBoard(board []tictactoe.Mark) string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			cells[col] = markGlyph(board[row*3+col])
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(cells, " "))
	}
	return b.String()
}
