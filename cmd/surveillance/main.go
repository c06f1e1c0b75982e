package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/PavithraS-567/Video-Surveillance-System/pkg/config"
)

// version подставляется при сборке через -ldflags "-X main.version=..."
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "surveillance",
		Usage:   "Multi-camera surveillance monitor",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file (same keys as environment variables)",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			checkConfigCommand(),
			versionCommand(),
		},
		// Без подкоманды запускаем мониторинг
		Action: runMonitor,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start monitoring all configured cameras",
		Description: `Starts one monitor per camera, the alert dispatcher and the HTTP server.

Exit codes:
  0  all cameras stopped normally (end of stream or signal)
  1  a camera stopped on a read or detector error
  2  a camera source could not be opened`,
		Action: runMonitor,
	}
}

func checkConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-config",
		Usage: "Validate configuration and print the effective settings",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
			}
			printConfigSummary(c, cfg)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version",
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, version)
			return nil
		},
	}
}

// loadConfig применяет глобальные флаги поверх окружения и читает конфигурацию
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return nil, err
		}
	}
	if level := c.String("log-level"); level != "" {
		if err := os.Setenv("LOG_LEVEL", level); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func printConfigSummary(c *cli.Context, cfg *config.Config) {
	w := c.App.Writer
	fmt.Fprintf(w, "cameras:        %v (source=%s)\n", cfg.Cameras.IDs, cfg.Cameras.Source)
	fmt.Fprintf(w, "obstruction:    dark<%d full<%.1f partial>%.2f debounce=%s\n",
		cfg.Obstruction.DarkPixelThreshold, cfg.Obstruction.FullBlockBrightness,
		cfg.Obstruction.PartialDarkRatio, cfg.Obstruction.DebounceDuration)
	fmt.Fprintf(w, "cooldown:       default=%s shared_obstruction=%t\n", cfg.Cooldown.Default, cfg.Cooldown.SharedObstruction)
	fmt.Fprintf(w, "detector:       endpoint=%q confidence=%.2f size=%d\n",
		cfg.Detector.Endpoint, cfg.Detector.ConfidenceThreshold, cfg.Detector.InferenceSize)
	fmt.Fprintf(w, "transports:     email=%t sms=%t nats=%t websocket=%t\n",
		cfg.Email.Enabled, cfg.SMS.Enabled, cfg.NATS.Enabled, cfg.Server.Enabled)
	fmt.Fprintf(w, "storage:        snapshots=%s alert_log=%s s3=%t audit=%s redis=%t\n",
		cfg.Storage.SnapshotDir, cfg.Storage.AlertLogPath, cfg.S3.Enabled, cfg.Audit.Backend, cfg.Redis.Enabled)
	fmt.Fprintf(w, "cloudwatch:     logs=%t metrics=%t\n", cfg.CloudWatch.LogsEnabled, cfg.CloudWatch.MetricsEnabled)
	fmt.Fprintf(w, "server:         enabled=%t port=%s auth=%t\n", cfg.Server.Enabled, cfg.Server.Port, cfg.Security.AuthEnabled)
}
