package qivivo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// PollResult is the outcome of refreshing one device's info.
type PollResult struct {
	UUID  string
	Info  DeviceInfo
	Error error
}

// BatchConfig configures concurrent device operations.
type BatchConfig struct {
	// MaxConcurrent is the maximum number of devices refreshed at once.
	// Defaults to 10 if not specified.
	MaxConcurrent int

	// StopOnError cancels the remaining refreshes after the first failure.
	// Skipped devices report the context error.
	StopOnError bool
}

// DefaultBatchConfig returns sensible defaults for batch operations.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		MaxConcurrent: 10,
		StopOnError:   false,
	}
}

// PollDevices refreshes the info of devices concurrently. Each device follows
// its own freshness clock unless force is set. Results are in the order of
// devices.
//
// Example:
//
//	results := client.PollDevices(ctx, devices, false, nil)
//	for _, r := range results {
//	    if r.Error != nil {
//	        log.Printf("device %s: %v", r.UUID, r.Error)
//	    }
//	}
func (c *Client) PollDevices(ctx context.Context, devices []Device, force bool, cfg *BatchConfig) []PollResult {
	if len(devices) == 0 {
		return nil
	}

	limit := DefaultBatchConfig().MaxConcurrent
	stopOnError := false
	if cfg != nil {
		if cfg.MaxConcurrent > 0 {
			limit = cfg.MaxConcurrent
		}
		stopOnError = cfg.StopOnError
	}

	g := new(errgroup.Group)
	gctx := ctx
	if stopOnError {
		g, gctx = errgroup.WithContext(ctx)
	}
	g.SetLimit(limit)

	results := make([]PollResult, len(devices))
	for i, d := range devices {
		i, d := i, d
		results[i].UUID = d.UUID()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}
			info, err := d.Info(gctx, force)
			results[i].Info = info
			results[i].Error = err
			if stopOnError {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
