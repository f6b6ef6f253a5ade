package main

import (
	"time"

	"github.com/tidegate/roomforge/internal/util/websockutil"
	"github.com/tidegate/roomforge/internal/wsroom"
)

// Options configures the demo server binary: the HTTP address it listens
// on, the /ws upgrade path's connection-state-machine tunables, and the
// transport-level websocket session settings.
type Options struct {
	Addr          string              `toml:"addr"`
	StatusLogFreq time.Duration       `toml:"status-log-freq"`
	Room          wsroom.Options      `toml:"room"`
	Session       websockutil.Options `toml:"session"`
}

func (o *Options) FillDefaults() {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:8080"
	}
	if o.StatusLogFreq == 0 {
		o.StatusLogFreq = 30 * time.Second
	}
	o.Room.FillDefaults()
	o.Session.FillDefaults()
}
