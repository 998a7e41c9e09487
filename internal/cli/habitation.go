package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tj-smith47/qivivo-go"
)

var settingNames = []qivivo.Setting{
	qivivo.SettingDaysOfAbsenceBeforeAlert,
	qivivo.SettingAbsenceTemperature,
	qivivo.SettingFrostTemperature,
	qivivo.SettingNightTemperature,
	qivivo.SettingPresenceTemperature1,
	qivivo.SettingPresenceTemperature2,
	qivivo.SettingPresenceTemperature3,
	qivivo.SettingPresenceTemperature4,
	qivivo.SettingFrostProtectionTemperature,
}

func newHabitationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habitation",
		Short: "Show the habitation settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			settings, err := cc.Client.Habitation().Settings(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}
			return printSettings(cmd, settings)
		},
	}

	cmd.AddCommand(newHabitationSetCommand())
	cmd.AddCommand(newHabitationAlertCommand())
	return cmd
}

func newHabitationSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Change a habitation temperature setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			settings, err := cc.Client.Habitation().PutSetting(cmd.Context(), qivivo.Setting(args[0]), value)
			if err != nil {
				return fmt.Errorf("failed to set %s: %w", args[0], err)
			}
			return printSettings(cmd, settings)
		},
	}
}

func newHabitationAlertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "alert DAYS",
		Short: "Set the number of days of absence before an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			days, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid number of days %q: %w", args[0], err)
			}
			settings, err := cc.Client.Habitation().PutAlert(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("failed to set alert: %w", err)
			}
			return printSettings(cmd, settings)
		},
	}
}

func printSettings(cmd *cobra.Command, settings qivivo.HabitationSettings) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SETTING\tVALUE")
	for _, name := range settingNames {
		value := "-"
		if v, ok := settings.Get(name); ok {
			value = strconv.FormatFloat(v, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, value)
	}
	return w.Flush()
}
