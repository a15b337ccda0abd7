package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"adwatch/config"
	"adwatch/database"
	"adwatch/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile          string
	dbPath           string
	appLogPathFlag   string
	proxyLogPathFlag string
	logLevelFlag     string
)

func expandTildeCmd(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

var rootCmd = &cobra.Command{
	Use:   "adwatch",
	Short: "Background agent for the ad reporting dashboard",
	Long: `adwatch keeps an ad reporting dashboard fed and fresh:

- schedules a daily check that opens the dashboard at local noon
- runs a local rewrite proxy that serves the ad platform its mobile
  User-Agent so the lightweight mobile reporting UI comes back

Run 'adwatch install' once, then 'adwatch start' to keep it running.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile, appLogPathFlag, proxyLogPathFlag, logLevelFlag); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		finalDBPath := dbPath
		if finalDBPath == "" {
			finalDBPath = config.AppConfig.Database.Path
		}
		expandedPath, err := expandTildeCmd(finalDBPath)
		if err != nil {
			logger.Error("Error expanding tilde in database path '%s': %v. Using original.", finalDBPath, err)
		} else {
			finalDBPath = expandedPath
		}
		if finalDBPath == "" {
			logger.Error("Database path is empty after checking flag and config. Falling back to 'adwatch.db' in CWD.")
			finalDBPath = "adwatch.db"
		}

		if err := database.InitDB(finalDBPath); err != nil {
			return fmt.Errorf("failed to initialize database at %s: %w", finalDBPath, err)
		}

		isSuppressedCmd := cmd.Name() == "completion" ||
			cmd.Name() == cobra.ShellCompRequestCmd ||
			cmd.Name() == cobra.ShellCompNoDescRequestCmd ||
			cmd.Name() == "start"
		if !isSuppressedCmd {
			logger.Info("Database initialized at: %s", finalDBPath)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/adwatch/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "path to SQLite database file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&appLogPathFlag, "app-log", "", "path for the application log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&proxyLogPathFlag, "proxy-log", "", "path for the proxy log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: DEBUG, INFO, ERROR (overrides config/default)")
}
