package wsroom

import "time"

// Options configures the connection state machine: how long a freshly
// upgraded socket is given to complete the join handshake, and the
// per-connection inbound rate limit applied during the active phase.
type Options struct {
	JoinTimeout  time.Duration `toml:"join-timeout"`
	InboundRPS   float64       `toml:"inbound-rps"`
	InboundBurst int           `toml:"inbound-burst"`
}

func (o *Options) FillDefaults() {
	if o.JoinTimeout == 0 {
		o.JoinTimeout = 300 * time.Second
	}
	if o.InboundRPS == 0 {
		o.InboundRPS = 20
	}
	if o.InboundBurst == 0 {
		o.InboundBurst = 40
	}
}
