package cmd

import (
	"fmt"
	"time"

	"adwatch/core"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Registers the daily check alarm and the mobile User-Agent rule",
	Long: `Establishes the two pieces of persistent state adwatch relies on:

- the 'dailyCheck' alarm, first firing at the next local noon and
  repeating every 24 hours
- header rule 1, which rewrites User-Agent to a mobile string for
  requests to the ad platform

Running install again recreates both; the old rule is removed before the
new one is added, so the rule ID is never duplicated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := core.Install(core.SystemClock{}); err != nil {
			logger.Error("Install failed: %v", err)
			return err
		}

		alarm, err := database.GetAlarmByName(models.DailyCheckAlarmName)
		if err != nil {
			return fmt.Errorf("install succeeded but alarm readback failed: %w", err)
		}
		fmt.Printf("Alarm '%s' registered. First fire: %s (repeats every %d minutes).\n",
			alarm.Name, alarm.NextFireAt.Local().Format(time.RFC1123), alarm.PeriodMinutes)
		fmt.Printf("Header rule %d installed: User-Agent -> mobile for URLs containing '%s'.\n",
			core.MobileUARuleID, core.AdPlatformURLFilter)
		fmt.Println("Run 'adwatch start' to run the scheduler, API server and rewrite proxy.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
