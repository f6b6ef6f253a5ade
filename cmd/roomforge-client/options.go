package main

import (
	"strings"

	"github.com/dustinkirkland/golang-petname"

	"github.com/tidegate/roomforge/internal/util/backoff"
)

// roomCodeLen matches wsroom's fixed query-parameter length check; the
// demo client has to produce codes of exactly this width.
const roomCodeLen = 6

// Options configures one client process: which room to join, as whom, and
// how hard to retry a dropped connection.
type Options struct {
	Addr    string
	Room    string
	Name    string
	Backoff backoff.Options
}

// suggestRoomCode derives a six-letter room code from a petname so a
// player starting a fresh room has something memorable to read aloud
// rather than typing six random characters: the wire protocol's fixed
// roomCodeLen leaves no room for petname's own hyphenated format, so this
// strips punctuation and pads/truncates to fit.
func suggestRoomCode() string {
	raw := strings.ToUpper(petname.Generate(2, ""))
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == roomCodeLen {
			break
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	for b.Len() < roomCodeLen {
		b.WriteByte('X')
	}
	return b.String()
}
