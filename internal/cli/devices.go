package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tj-smith47/qivivo-go"
)

func newDevicesCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			list := cc.Client.Devices
			if refresh {
				list = cc.Client.RefreshDevices
			}
			devices, err := list(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "UUID\tTYPE")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\n", d.UUID, d.Type)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the device list")
	return cmd
}

func newInfoCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "info UUID",
		Short: "Show device information and freshness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			dev, err := cc.Client.Device(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			info, err := dev.Info(cmd.Context(), force)
			if err != nil {
				return err
			}
			fresh := dev.Freshness()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "UUID:\t%s\n", dev.UUID())
			fmt.Fprintf(w, "Type:\t%s\n", dev.Type())
			fmt.Fprintf(w, "Serial:\t%s\n", info.Serial)
			fmt.Fprintf(w, "Software:\t%s\n", info.SoftwareVersion)
			fmt.Fprintf(w, "Last communication:\t%s\n", info.LastCommunication.Format(time.DateTime))
			fmt.Fprintf(w, "Interval:\t%s\n", info.CommunicationInterval)
			fmt.Fprintf(w, "Fresh until:\t%s\n", fresh.Deadline().Format(time.DateTime))
			fmt.Fprintf(w, "Fresh:\t%t\n", dev.IsFresh())
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Fetch even if the cached info is fresh")
	return cmd
}

func newTemperatureCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "temperature UUID",
		Short: "Show the temperature measured by a thermostat or wireless module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			dev, err := cc.Client.Device(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch d := dev.(type) {
			case *qivivo.Thermostat:
				temp, err := d.Temperature(cmd.Context(), force)
				if err != nil {
					return err
				}
				order, err := d.TemperatureOrder(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.1f°C (order %.1f°C)\n", temp, order)
			case *qivivo.WirelessModule:
				temp, err := d.Temperature(cmd.Context(), force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.1f°C\n", temp)
			default:
				return fmt.Errorf("%s device %s has no temperature", dev.Type(), dev.UUID())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Fetch even if the cached value is fresh")
	return cmd
}

func newHumidityCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "humidity UUID",
		Short: "Show the relative humidity measured by a thermostat or wireless module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			dev, err := cc.Client.Device(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var humidity float64
			switch d := dev.(type) {
			case *qivivo.Thermostat:
				humidity, err = d.Humidity(cmd.Context(), force)
			case *qivivo.WirelessModule:
				humidity, err = d.Humidity(cmd.Context(), force)
			default:
				return fmt.Errorf("%s device %s has no humidity", dev.Type(), dev.UUID())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f%%\n", humidity)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Fetch even if the cached value is fresh")
	return cmd
}

func newSetTemperatureCommand() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "set-temperature UUID CELSIUS",
		Short: "Set a temporary temperature instruction on a thermostat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			celsius, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid temperature %q: %w", args[1], err)
			}
			thermostat, err := loadThermostat(cmd, cc, args[0])
			if err != nil {
				return err
			}
			if err := thermostat.SetTemporaryInstruction(cmd.Context(), celsius, duration); err != nil {
				return fmt.Errorf("failed to set temperature: %w", err)
			}

			if duration <= 0 {
				duration = qivivo.DefaultInstructionDuration
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %.1f°C for %s\n", celsius, duration)
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", qivivo.DefaultInstructionDuration, "How long the instruction lasts")
	return cmd
}

func newCancelTemperatureCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-temperature UUID",
		Short: "Cancel the temporary temperature instruction of a thermostat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			thermostat, err := loadThermostat(cmd, cc, args[0])
			if err != nil {
				return err
			}
			if err := thermostat.CancelTemporaryInstruction(cmd.Context()); err != nil {
				return fmt.Errorf("failed to cancel temperature: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Temporary instruction cancelled")
			return nil
		},
	}
}

func loadThermostat(cmd *cobra.Command, cc *CliContext, uuid string) (*qivivo.Thermostat, error) {
	dev, err := cc.Client.Device(cmd.Context(), uuid)
	if err != nil {
		return nil, err
	}
	thermostat, ok := dev.(*qivivo.Thermostat)
	if !ok {
		return nil, fmt.Errorf("device %s is a %s, not a thermostat", uuid, dev.Type())
	}
	return thermostat, nil
}
