package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "stack"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Personal budget with cross-device sync",
		Long: `Stack keeps accounts, budgets, bills and goals in one document that is
cached locally and synchronized through a remote document store.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		serveCmd(&logLevel),
		syncCmd(&logLevel),
		exportCmd(&logLevel),
		importCmd(&logLevel),
		totalsCmd(&logLevel),
		tokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}
