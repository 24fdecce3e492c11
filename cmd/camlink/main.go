package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cerrors "github.com/vango-dev/camlink/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		var e *cerrors.Error
		if errors.As(err, &e) {
			fmt.Fprint(os.Stderr, e.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
	center     string
	token      string
}

func rootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "camlink",
		Short: "Realtime client for video-surveillance servers",
		Long: `camlink keeps the control and media connections to a surveillance
center alive and turns its video stream into frames.

  • watch   print control messages as they arrive
  • stream  open one camera stream, report frame stats, record it
  • serve   run the streams behind an HTTP API with /metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to camlink.json (default ./camlink.json)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (default from camlink.json)")
	root.PersistentFlags().StringVar(&g.center, "center", "", "Control connection URL (overrides center.address)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "Init frame token (overrides center.token)")

	root.AddCommand(
		watchCmd(&g),
		streamCmd(&g),
		serveCmd(&g),
		versionCmd(),
	)
	return root
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
