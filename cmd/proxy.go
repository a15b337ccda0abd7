package cmd

import (
	"fmt"

	"adwatch/config"
	"adwatch/core"
	"adwatch/logger"

	"github.com/spf13/cobra"
)

var standaloneProxyPort string

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manages the rewrite proxy server (can be run standalone or as part of 'start')",
}

var proxyStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the rewrite proxy server",
	Long: `Starts the proxy that applies the installed header rules to traffic
passing through it. Point the browser (or system) at this proxy.
The CA certificate (adwatch-ca.crt) must be generated (using 'proxy init-ca')
and trusted by the client, or HTTPS requests cannot be rewritten.`,
	Run: func(cmd *cobra.Command, args []string) {
		portToUse := standaloneProxyPort
		if !cmd.Flags().Changed("port") {
			portToUse = config.AppConfig.Proxy.Port
			logger.Debug("Using proxy port from config: %s", portToUse)
		}
		if portToUse == "" {
			portToUse = "8691"
		}

		caCertPath := config.AppConfig.Proxy.CACertPath
		caKeyPath := config.AppConfig.Proxy.CAKeyPath
		if caCertPath == "" || caKeyPath == "" {
			logger.Error("Proxy CA certificate or key path not configured. Check config or run 'proxy init-ca' first.")
			return
		}
		logger.ProxyInfo("Proxy using CA Cert: %s, CA Key: %s", caCertPath, caKeyPath)

		if err := core.StartRewriteProxy(portToUse, caCertPath, caKeyPath); err != nil {
			logger.ProxyError("Error starting proxy: %v", err)
		}
	},
}

var proxyInitCACmd = &cobra.Command{
	Use:   "init-ca",
	Short: "Initializes (generates) the root CA certificate and key for the rewrite proxy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Initializing Proxy CA...")
		certPath := config.AppConfig.Proxy.CACertPath
		keyPath := config.AppConfig.Proxy.CAKeyPath

		if certPath == "" || keyPath == "" {
			logger.Error("CA certificate or key path is not defined in configuration.")
			return
		}

		if err := core.GenerateAndSaveCA(certPath, keyPath); err != nil {
			fmt.Printf("Error generating CA. Check logs for details: %v\n", err)
			return
		}
		fmt.Println("Please import the CA certificate (adwatch-ca.crt) into your browser/system's trust store.")
	},
}

func init() {
	proxyStartCmd.Flags().StringVarP(&standaloneProxyPort, "port", "p", "8691", "Port for the proxy server to listen on (overrides config)")

	proxyCmd.AddCommand(proxyStartCmd)
	proxyCmd.AddCommand(proxyInitCACmd)
	rootCmd.AddCommand(proxyCmd)
}
