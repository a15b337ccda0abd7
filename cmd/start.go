package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"adwatch/api"
	"adwatch/api/router/handlers"
	"adwatch/config"
	"adwatch/core"
	"adwatch/logger"

	"github.com/spf13/cobra"
)

var (
	startServerPort string
	startProxyPort  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts all adwatch services (API server, scheduler and rewrite proxy)",
	Long: `Starts the API/dashboard server, the alarm scheduler and the rewrite
proxy concurrently. Press Ctrl+C to gracefully shut down all services.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("--- Start Command: Run ---")

		actualServerPort := startServerPort
		if !cmd.Flags().Changed("server-port") {
			actualServerPort = config.AppConfig.Server.Port
		}
		if actualServerPort == "" {
			logger.Error("Start Command: Server port is empty after checking flag and config, defaulting to 8690")
			actualServerPort = "8690"
		}

		actualProxyPort := startProxyPort
		if !cmd.Flags().Changed("proxy-port") {
			actualProxyPort = config.AppConfig.Proxy.Port
		}
		if actualProxyPort == "" {
			logger.Error("Start Command: Proxy port is empty after checking flag and config, defaulting to 8691")
			actualProxyPort = "8691"
		}

		logger.Info("Start Command: Final ports determined - Server: %s, Proxy: %s", actualServerPort, actualProxyPort)

		scheduler := core.NewScheduler(core.SystemClock{})
		scheduler.OnAlarm(core.HandleDailyCheck)
		handlers.SetScheduler(scheduler)

		var wg sync.WaitGroup

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// --- Start API Server Goroutine ---
		wg.Add(1)
		go func(parentCtx context.Context) {
			defer wg.Done()
			logger.Info("Start Command Goroutine(API): Attempting to start API server on port %s...", actualServerPort)

			apiRouter := api.NewRouter()
			staticFileDir := "./static"
			fileServer := http.FileServer(http.Dir(staticFileDir))
			mainMux := http.NewServeMux()
			mainMux.Handle("/api/", http.StripPrefix("/api", apiRouter))
			mainMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					logger.Error("Request for %s reached root handler unexpectedly, passing to API router.", r.URL.Path)
					http.StripPrefix("/api", apiRouter).ServeHTTP(w, r)
					return
				}
				fileServer.ServeHTTP(w, r)
			})

			server := &http.Server{
				Addr:    ":" + actualServerPort,
				Handler: mainMux,
			}

			go func() {
				<-parentCtx.Done()
				logger.Info("Start Command Goroutine(API): Shutdown signal received...")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("Start Command Goroutine(API): Graceful shutdown failed: %v", err)
				} else {
					logger.Info("Start Command Goroutine(API): Gracefully stopped.")
				}
			}()

			logger.Info("Start Command Goroutine(API): Listening on :%s", actualServerPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Start Command Goroutine(API): ListenAndServe error: %v", err)
				cancel()
			}
			logger.Info("Start Command Goroutine(API): Finished.")
		}(ctx)

		// --- Start Scheduler Goroutine ---
		wg.Add(1)
		go func(parentCtx context.Context) {
			defer wg.Done()
			if err := scheduler.Run(parentCtx); err != nil {
				logger.Error("Start Command Goroutine(Scheduler): Run returned error: %v", err)
				cancel()
			}
			logger.Info("Start Command Goroutine(Scheduler): Finished.")
		}(ctx)

		// --- Start Rewrite Proxy Goroutine ---
		wg.Add(1)
		go func(parentCtx context.Context) {
			defer wg.Done()
			logger.ProxyInfo("Start Command Goroutine(Proxy): Attempting to start rewrite proxy on port %s...", actualProxyPort)

			caCertPath := config.AppConfig.Proxy.CACertPath
			caKeyPath := config.AppConfig.Proxy.CAKeyPath
			if caCertPath == "" || caKeyPath == "" {
				logger.Error("Start Command Goroutine(Proxy): CA certificate or key path not configured. Check config or run 'proxy init-ca' first.")
				cancel()
				return
			}
			logger.ProxyInfo("Start Command Goroutine(Proxy): Using CA Cert: %s, CA Key: %s", caCertPath, caKeyPath)

			proxyErrChan := make(chan error, 1)
			go func() {
				proxyErrChan <- core.StartRewriteProxy(actualProxyPort, caCertPath, caKeyPath)
			}()

			select {
			case err := <-proxyErrChan:
				if err != nil {
					logger.Error("Start Command Goroutine(Proxy): core.StartRewriteProxy returned error: %v", err)
					cancel()
				}
			case <-parentCtx.Done():
				logger.ProxyInfo("Start Command Goroutine(Proxy): Shutdown signal received...")
			}
			logger.ProxyInfo("Start Command Goroutine(Proxy): Finished.")
		}(ctx)

		// --- Wait for termination signal ---
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		logger.Info("Start Command: All service goroutines launched. Press Ctrl+C to exit.")

		select {
		case sig := <-sigs:
			logger.Info("Start Command: Received signal: %s. Initiating shutdown...", sig)
		case <-ctx.Done():
			logger.Info("Start Command: Context cancelled (likely due to a service error). Initiating shutdown...")
		}

		cancel()

		shutdownComplete := make(chan struct{})
		go func() {
			wg.Wait()
			close(shutdownComplete)
		}()

		select {
		case <-shutdownComplete:
			logger.Info("Start Command: All services shut down.")
		case <-time.After(10 * time.Second):
			logger.Error("Start Command: Shutdown timed out. Forcing exit.")
		}

		logger.Info("Start Command: Exited.")
	},
}

func init() {
	startCmd.Flags().StringVar(&startServerPort, "server-port", "8690", "Port for the API server (overrides config)")
	startCmd.Flags().StringVar(&startProxyPort, "proxy-port", "8691", "Port for the rewrite proxy server (overrides config)")
	rootCmd.AddCommand(startCmd)
}
