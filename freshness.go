package qivivo

import (
	"context"
	"log/slog"
	"time"
)

// Freshness is a device's communication clock: when the physical device last
// talked to the Qivivo servers and how often it does so. Cached attributes of
// a device stay valid until LastCommunication + Interval.
//
// There is one clock per device, shared by every attribute (info, temperature,
// humidity); the hardware reports a single cadence.
type Freshness struct {
	LastCommunication time.Time
	Interval          time.Duration
}

// Deadline returns the instant after which cached values are stale.
func (f Freshness) Deadline() time.Time {
	return f.LastCommunication.Add(f.Interval)
}

// FreshAt reports whether cached values are still valid at now.
// A never-polled device (zero Freshness) is never fresh.
func (f Freshness) FreshAt(now time.Time) bool {
	return now.Before(f.Deadline())
}

// observe records a server-reported communication. The interval always takes
// the latest value; the timestamp never moves backwards.
func (f *Freshness) observe(last time.Time, interval time.Duration) {
	if last.After(f.LastCommunication) {
		f.LastCommunication = last
	}
	f.Interval = interval
}

// shouldFetch decides whether attribute must be read from the network.
// Caller holds d.mu.
func (d *device) shouldFetch(ctx context.Context, attribute string, force bool) bool {
	now := d.client.clock.Now()
	fresh := d.freshness.FreshAt(now)
	fetch := force || !fresh

	d.client.metrics.observeRead(d.kind, attribute, fetch)
	d.client.log(ctx, slog.LevelDebug, "freshness_check",
		slog.String("uuid", d.uuid),
		slog.String("attribute", attribute),
		slog.Time("refresh_limit", d.freshness.Deadline()),
		slog.Time("now", now),
		slog.Bool("fresh", fresh),
		slog.Bool("force", force),
	)
	return fetch
}
