package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"adwatch/core"
	"adwatch/database"
	"adwatch/logger"

	"github.com/spf13/cobra"
)

var alarmCmd = &cobra.Command{
	Use:   "alarm",
	Short: "Manages registered alarms",
}

var alarmListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all registered alarms",
	RunE: func(cmd *cobra.Command, args []string) error {
		alarms, err := database.GetAllAlarms()
		if err != nil {
			logger.Error("Failed to list alarms: %v", err)
			return err
		}
		if len(alarms) == 0 {
			fmt.Println("No alarms registered. Run 'adwatch install' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tNEXT FIRE\tPERIOD (MIN)\tLAST FIRED")
		for _, a := range alarms {
			lastFired := "-"
			if a.LastFiredAt.Valid {
				lastFired = a.LastFiredAt.Time.Local().Format(time.RFC1123)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.Name, a.NextFireAt.Local().Format(time.RFC1123), a.PeriodMinutes, lastFired)
		}
		return w.Flush()
	},
}

var alarmFireCmd = &cobra.Command{
	Use:   "fire <name>",
	Short: "Fires a registered alarm immediately, outside its schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		scheduler := core.NewScheduler(core.SystemClock{})
		scheduler.OnAlarm(core.HandleDailyCheck)

		if err := scheduler.Fire(name); err != nil {
			logger.Error("Failed to fire alarm '%s': %v", name, err)
			return err
		}
		fmt.Printf("Alarm '%s' fired.\n", name)
		return nil
	},
}

func init() {
	alarmCmd.AddCommand(alarmListCmd)
	alarmCmd.AddCommand(alarmFireCmd)
	rootCmd.AddCommand(alarmCmd)
}
