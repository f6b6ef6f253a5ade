package main

import (
	"hash/fnv"

	"github.com/lucasb-eyer/go-colorful"
)

// colorFor derives a stable display color for name: the hue comes from a
// hash of the name so the same name always renders the same color across
// reconnects, without a server-assigned palette.
func colorFor(name string) colorful.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	hue := float64(h.Sum32() % 360)
	return colorful.Hsv(hue, 0.65, 0.9)
}
