package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/renderbridge/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗┌─┐┌┐┌┌┬┐┌─┐┬─┐┌┐ ┬─┐┬┌┬┐┌─┐┌─┐
  ╠╦╝├┤ │││ ││├┤ ├┬┘├┴┐├┬┘│ │││ ┬├┤
  ╩╚═└─┘┘└┘─┴┘└─┘┴└─└─┘┴└─┴─┴┘└─┘└─┘
`

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("error-format")
		errors.PrintError(os.Stderr, err, format)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "renderbridge",
		Short: "Update channel between a control layer and a native renderer",
		Long: `renderbridge serves the batched update channel over WebSocket and
inspects the wire format it carries.

  • serve   accept control-layer connections and dispatch batches
  • decode  print encoded messages as JSON
  • encode  encode JSON values as messages
  • frame   inspect transport frames
  • config  print or write the resolved configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")
	rootCmd.PersistentFlags().String("error-format", "text", "Error output format (text, json, compact)")

	rootCmd.AddCommand(
		serveCmd(),
		decodeCmd(),
		encodeCmd(),
		frameCmd(),
		configCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), banner)
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
