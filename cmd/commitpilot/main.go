// commitpilot decides commitment purchases from recent spend and coverage
// observations. The run command performs a single invocation (preview by
// default, --execute to publish plans); daemon runs it on a cron schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/rshade/commitpilot/internal/advisor"
	"github.com/rshade/commitpilot/internal/autopilot"
	"github.com/rshade/commitpilot/internal/engine"
	"github.com/rshade/commitpilot/internal/metering"
	"github.com/rshade/commitpilot/internal/queue"
	"github.com/rshade/commitpilot/internal/report"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("COMMITPILOT_LOG_LEVEL"))

	app := &cli.App{
		Name:  "commitpilot",
		Usage: "decide and queue commitment purchases from spend observations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "commitpilot.yaml",
				Usage:   "path to the YAML configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "perform one decision run",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "execute",
						Usage: "publish purchase plans instead of previewing",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: report.FormatJSON,
						Usage: "report format: json, csv, or html",
					},
				},
				Action: func(c *cli.Context) error {
					return runOnce(c.Context, c.String("config"), c.Bool("execute"), c.String("format"), logger)
				},
			},
			{
				Name:  "validate",
				Usage: "check the configuration file and exit",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"))
					if err != nil {
						return err
					}
					logger.Info().
						Str("target_strategy", cfg.Engine.TargetStrategyType).
						Str("split_strategy", cfg.Engine.SplitStrategyType).
						Int("categories", len(cfg.Engine.Categories)).
						Msg("configuration valid")
					return nil
				},
			},
			{
				Name:  "daemon",
				Usage: "run on the configured cron schedule",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "execute",
						Usage: "publish purchase plans instead of previewing",
					},
				},
				Action: func(c *cli.Context) error {
					return runDaemon(c.Context, c.String("config"), c.Bool("execute"), logger)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("commitpilot failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		lvl = parsed
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// newRunner builds the runner and its AWS-backed collaborators from the
// configuration file.
func newRunner(ctx context.Context, configPath string, logger zerolog.Logger) (*autopilot.Runner, *AppConfig, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}

	ce := costexplorer.NewFromConfig(awsCfg)
	src := metering.NewCostExplorer(ce, cfg.LookbackDays, logger)

	var adv advisor.Client
	if cfg.Engine.TargetStrategyType == engine.TargetStrategyVendor {
		adv = advisor.NewCostExplorer(ce, cfg.LookbackDays, logger)
	}

	var pub *queue.Publisher
	if cfg.QueueURL != "" {
		pub = queue.NewPublisher(queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.QueueURL), logger)
	}

	return autopilot.NewRunner(&cfg.Engine, src, adv, pub, logger), cfg, nil
}

func runOnce(ctx context.Context, configPath string, execute bool, format string, logger zerolog.Logger) error {
	runner, cfg, err := newRunner(ctx, configPath, logger)
	if err != nil {
		return err
	}
	if execute && cfg.QueueURL == "" {
		return fmt.Errorf("execute mode requires queue_url (or COMMITPILOT_QUEUE_URL)")
	}

	result, err := runner.Run(ctx, execute)
	if err != nil {
		return err
	}
	return result.Report.Render(os.Stdout, format)
}

func runDaemon(ctx context.Context, configPath string, execute bool, logger zerolog.Logger) error {
	// Fail fast on a bad configuration before scheduling anything.
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if execute && cfg.QueueURL == "" {
		return fmt.Errorf("execute mode requires queue_url (or COMMITPILOT_QUEUE_URL)")
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
		defer cancel()

		// Collaborators are rebuilt per run so credential rotation and
		// config edits take effect without a restart.
		runner, _, err := newRunner(runCtx, configPath, logger)
		if err != nil {
			logger.Error().Err(err).Msg("scheduled run setup failed")
			return
		}
		if _, err := runner.Run(runCtx, execute); err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	logger.Info().Str("schedule", cfg.Schedule).Bool("execute", execute).Msg("daemon started")
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("daemon stopped")
	return nil
}
