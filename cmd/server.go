package cmd

import (
	"net/http"
	"strings"

	"adwatch/api"
	"adwatch/logger"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the dashboard and API server (can be run standalone or as part of 'start')",
	Run: func(cmd *cobra.Command, args []string) {
		portToUse := standaloneServerPort
		if portToUse == "" {
			portToUse = "8690"
		}

		logger.Info("--- Server Command: Run ---")
		logger.Info("Attempting to start server on port %s...", portToUse)

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

		logger.Info("Server Command: API and static file handlers configured. Attempting to ListenAndServe on :%s...", portToUse)
		if err := http.ListenAndServe(":"+portToUse, mainMux); err != nil {
			logger.Fatal("Could not start server: %v", err)
		}
	},
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "8690", "Port for the server to listen on (if run standalone)")
	rootCmd.AddCommand(serverCmd)
}
