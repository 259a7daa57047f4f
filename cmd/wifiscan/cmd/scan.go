package cmd

import (
	"os"
	"os/signal"
	"syscall"

	wifiscan "github.com/dogeorg/wifiscan/pkg"
	"github.com/dogeorg/wifiscan/pkg/system"
	"github.com/dogeorg/wifiscan/pkg/system/network"
	"github.com/dogeorg/wifiscan/pkg/system/publisher"
	"github.com/spf13/cobra"
)

var scanFlags struct {
	iface      string
	backend    string
	intervalMs int
	timeoutMs  int
	count      int
	publishURL string
	noSdNotify bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Power on the radio and scan for networks until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := scanConfig(cmd)
		if err != nil {
			return err
		}

		log, logCloser := wifiscan.NewLogger(config.Log)
		defer logCloser.Close()

		radio, err := network.NewRadio(config, log)
		if err != nil {
			log.WithError(err).Error("Could not set up radio")
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []wifiscan.ScanLoopOption{
			wifiscan.WithLogger(log),
			wifiscan.WithMaxCycles(scanFlags.count),
		}

		if config.Systemd.Notify {
			notifier := system.NewSystemdNotifier(log)
			notifier.Watchdog(ctx)
			defer notifier.Stopping()
			opts = append(opts, wifiscan.WithNotifier(notifier))
		}

		if config.PublishURL != "" {
			opts = append(opts, wifiscan.WithPublisher(publisher.NewHTTPPublisher(config.PublishURL)))
		}

		loop := wifiscan.NewScanLoop(config, radio, cmd.OutOrStdout(), opts...)
		return loop.Run(ctx)
	},
}

// scanConfig layers flags over the config file and environment.
func scanConfig(cmd *cobra.Command) (wifiscan.ScanConfig, error) {
	config, err := wifiscan.LoadScanConfig(configPath)
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("interface") {
		config.Interface = scanFlags.iface
	}
	if flags.Changed("backend") {
		config.Backend = scanFlags.backend
	}
	if flags.Changed("interval") {
		config.IntervalMs = scanFlags.intervalMs
	}
	if flags.Changed("scan-timeout") {
		config.ScanTimeoutMs = scanFlags.timeoutMs
	}
	if flags.Changed("publish") {
		config.PublishURL = scanFlags.publishURL
	}
	if flags.Changed("no-sd-notify") {
		config.Systemd.Notify = !scanFlags.noSdNotify
	}
	if flags.Changed("verbose") {
		config.Log.Verbose = verbose
	}
	if flags.Changed("log-file") {
		config.Log.File = logFile
	}

	return config, config.Validate()
}

func init() {
	scanCmd.Flags().StringVarP(&scanFlags.iface, "interface", "i", "", "Wi-Fi interface to scan with (default: first station interface)")
	scanCmd.Flags().StringVarP(&scanFlags.backend, "backend", "b", wifiscan.DefaultBackend, "Scan backend: iwlist, iw or fake")
	scanCmd.Flags().IntVar(&scanFlags.intervalMs, "interval", int(wifiscan.DefaultInterval.Milliseconds()), "Delay between scans in milliseconds")
	scanCmd.Flags().IntVar(&scanFlags.timeoutMs, "scan-timeout", 0, "Give up on a radio call after this many milliseconds, 0 waits forever")
	scanCmd.Flags().IntVarP(&scanFlags.count, "count", "n", 0, "Stop after this many scans, 0 scans forever")
	scanCmd.Flags().StringVar(&scanFlags.publishURL, "publish", "", "POST every successful scan as JSON to this URL")
	scanCmd.Flags().BoolVar(&scanFlags.noSdNotify, "no-sd-notify", false, "Don't send readiness and status to systemd")

	rootCmd.AddCommand(scanCmd)
}
