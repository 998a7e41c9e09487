package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/tj-smith47/qivivo-go"
)

func newWatchCommand() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll device readings on a schedule until interrupted",
		Long: `Poll the info of every device (or the devices listed in watch.devices)
on a cron schedule and print the readings. Devices are only fetched when the
Qivivo servers have fresh data for them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)
			if !cmd.Flags().Changed("schedule") {
				schedule = cc.Config.Watch.Schedule
			}
			return runWatch(cmd.Context(), cc, schedule, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 5m", "Cron schedule of the polls")
	return cmd
}

// runWatch polls once immediately, then on every tick of schedule until ctx is done.
func runWatch(ctx context.Context, cc *CliContext, schedule string, out io.Writer) error {
	devices, err := watchedDevices(ctx, cc)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices to watch")
	}

	w := &watcher{client: cc.Client, logger: cc.Logger, devices: devices, out: out}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(schedule, func() { w.poll(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	cc.Logger.Info("watch started", "schedule", schedule, "devices", len(devices))
	w.poll(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	cc.Logger.Info("watch stopped")
	return nil
}

func watchedDevices(ctx context.Context, cc *CliContext) ([]qivivo.Device, error) {
	uuids := cc.Config.Watch.Devices
	if len(uuids) == 0 {
		list, err := cc.Client.Devices(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		for _, d := range list {
			uuids = append(uuids, d.UUID)
		}
	}

	devices := make([]qivivo.Device, 0, len(uuids))
	for _, id := range uuids {
		dev, err := cc.Client.Device(ctx, id)
		if qivivo.IsUnsupportedDeviceType(err) {
			cc.Logger.Warn("skipping device", "uuid", id, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load device %s: %w", id, err)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

type watcher struct {
	client  *qivivo.Client
	logger  *slog.Logger
	devices []qivivo.Device
	out     io.Writer
}

func (w *watcher) poll(ctx context.Context) {
	start := time.Now()
	results := w.client.PollDevices(ctx, w.devices, false, nil)

	failed := 0
	for i, r := range results {
		if r.Error != nil {
			failed++
			w.logger.Error("poll failed", "uuid", r.UUID, "error", r.Error)
			continue
		}
		fmt.Fprintf(w.out, "%s %s %s\n", time.Now().Format(time.DateTime), r.UUID, w.reading(ctx, w.devices[i]))
	}

	w.logger.Debug("poll done",
		"devices", len(results),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// reading formats the cached readings of d, refreshing them when stale.
func (w *watcher) reading(ctx context.Context, d qivivo.Device) string {
	switch dev := d.(type) {
	case *qivivo.Thermostat:
		temp, err := dev.Temperature(ctx, false)
		if err != nil {
			return "error: " + err.Error()
		}
		humidity, err := dev.Humidity(ctx, false)
		if err != nil {
			return "error: " + err.Error()
		}
		return fmt.Sprintf("thermostat %.1f°C %.1f%%", temp, humidity)
	case *qivivo.WirelessModule:
		temp, err := dev.Temperature(ctx, false)
		if err != nil {
			return "error: " + err.Error()
		}
		order, err := dev.PilotWireOrder(ctx, false)
		if err != nil {
			return "error: " + err.Error()
		}
		return fmt.Sprintf("wireless-module %.1f°C %s", temp, order)
	default:
		return fmt.Sprintf("%s fresh=%t", d.Type(), d.IsFresh())
	}
}
