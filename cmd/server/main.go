package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	portFlag     string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Storefront backend: authentication, user administration and catalog API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "HTTP port, overrides HTTP_PORT/PORT")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level, overrides LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, migrateCmd, promoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
