// Package config loads the engine's tuning knobs — the rebuild stability
// window K and the worker's coalescing mailbox size — from a TOML file
// via github.com/pelletier/go-toml. Mailbox size is written in the
// config file as a human size ("64KiB") and parsed with
// github.com/alecthomas/units.
package config

import (
	"fmt"

	"github.com/alecthomas/units"
	"github.com/pelletier/go-toml"
)

// Tuning holds knobs documented in DESIGN.md: sensible defaults that
// correctness never depends on, only repaint granularity and rebuild cost.
type Tuning struct {
	// StabilityWindow is K, the number of matching suffix lexemes a
	// rebuild must see before it stops replaying and splices.
	StabilityWindow int `toml:"stability_window"`

	// RestartMargin is how many extra old tokens the restart search backs
	// up past the nearest one ending at or before the edit.
	RestartMargin int `toml:"restart_margin"`

	// MailboxSize is the worker's coalescing buffer, expressed as a size
	// string ("64KiB") and parsed into a token-count budget the same way
	// an operator would size any other bounded channel.
	MailboxSize string `toml:"mailbox_size"`
}

// Default mirrors build.DefaultK / build.DefaultRestartMargin and a
// generous default mailbox.
func Default() Tuning {
	return Tuning{
		StabilityWindow: 10,
		RestartMargin:   3,
		MailboxSize:     "64KiB",
	}
}

// Load parses a TOML document into a Tuning, starting from Default so a
// config file only needs to override what it cares about.
func Load(data []byte) (Tuning, error) {
	t := Default()
	if err := toml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("config: %w", err)
	}
	return t, nil
}

// MailboxTokens parses MailboxSize into a token-count budget (1 byte of
// size budget per queued edit-coalescing slot, the same unit
// alecthomas/units expresses buffer sizes in throughout the pack).
func (t Tuning) MailboxTokens() (int, error) {
	sz, err := units.ParseBase2Bytes(t.MailboxSize)
	if err != nil {
		return 0, fmt.Errorf("config: mailbox_size: %w", err)
	}
	if sz <= 0 {
		return 0, fmt.Errorf("config: mailbox_size must be positive, got %s", t.MailboxSize)
	}
	return int(sz), nil
}
