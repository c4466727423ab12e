package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"SpreadScope/internal/config"
	"SpreadScope/internal/model"
	"SpreadScope/internal/notifier"
	"SpreadScope/internal/render"
	"SpreadScope/internal/scheduler"
	"SpreadScope/internal/server"
	"SpreadScope/internal/service"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	app := &cli.App{
		Name:     "spreadscope",
		HelpName: "spreadscope",
		Usage:    "Synthesize and inspect futures calendar spreads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config",
				Value:   "configs/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "eg. debug, info, warn",
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "serve generated bars instead of a real data source",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			presetsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:     "run",
		HelpName: "run",
		Usage:    "Compute one spread and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "eg. SH"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "butterfly or condor", Value: string(model.Butterfly)},
			&cli.StringFlag{Name: "legs", Aliases: []string{"l"}, Usage: "eg. SH2511,SH2512,SH2601"},
			&cli.StringFlag{Name: "granularity", Aliases: []string{"g"}, Usage: "1min, 5min, 15min, 30min, 60min or 1day", Value: string(model.Gran1Min)},
			&cli.StringFlag{Name: "view", Usage: "simple or analysis", Value: string(render.ViewSimple)},
			&cli.IntFlag{Name: "tail", Usage: "print only the last N rows", Value: 30},
			&cli.BoolFlag{Name: "labeled-only", Usage: "print only rows carrying an axis label"},
			&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.String("log-level"))
			if err != nil {
				return err
			}
			view, err := render.ParseView(c.String("view"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			g, err := parseGranularity(c.String("granularity"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			a, err := buildApp(c.Context, cfg, c.Bool("demo"))
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				resp *service.Response
				sc   model.StrategyConfig
			)
			if c.String("legs") == "" {
				if c.String("preset") == "" {
					return cli.Exit("either --preset or --legs is required", 2)
				}
				sc, _ = a.catalog.Preset(c.String("preset"))
				resp, err = a.service.ComputePreset(c.Context, c.String("preset"), g)
			} else {
				tag, perr := model.ParseStrategyTag(c.String("strategy"))
				if perr != nil {
					return cli.Exit(perr.Error(), 2)
				}
				sc = model.StrategyConfig{Tag: tag, Legs: model.SplitLegs(c.String("legs"))}
				resp, err = a.service.Compute(c.Context, sc, g)
			}
			if err != nil {
				log.Debugf("compute: %v", err)
				return cli.Exit(service.UserMessage(err, sc), exitCode(err))
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp.Result)
			}
			r := render.TableRenderer{View: view, Tail: c.Int("tail"), LabeledOnly: c.Bool("labeled-only")}
			return r.Render(os.Stdout, resp.Result)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:     "serve",
		HelpName: "serve",
		Usage:    "Run the HTTP API, the watchlist scheduler and the Telegram bot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides http.addr"},
			&cli.BoolFlag{Name: "run-on-start", Usage: "refresh the watchlist immediately", EnvVars: []string{"RUN_ON_START"}},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.String("log-level"))
			if err != nil {
				return err
			}
			if addr := c.String("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, c.Bool("demo"))
			if err != nil {
				return err
			}
			defer a.Close()

			var sender scheduler.Sender
			var tn *notifier.TelegramNotifier
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				sender = tn
			}

			sched := scheduler.NewScheduler(ctx, a.service, a.catalog, sender, a.recorder, a.metrics)
			if err := sched.Register(cfg.Schedule.WatchCron, cfg.Watchlist); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info("Telegram polling started")
			}
			if c.Bool("run-on-start") {
				log.Info("run-on-start enabled, refreshing watchlist now")
				go sched.RunWatchlistNow()
			}

			srv := server.New(a.service, a.catalog, a.recorder, a.registry)
			log.Info("SpreadScope is running. Press Ctrl+C to stop.")
			if err := srv.Run(ctx, cfg.HTTP.Addr); err != nil && ctx.Err() == nil {
				return fmt.Errorf("http server: %w", err)
			}
			log.Info("SpreadScope stopped")
			return nil
		},
	}
}

func presetsCommand() *cli.Command {
	return &cli.Command{
		Name:     "presets",
		HelpName: "presets",
		Usage:    "List the configured commodity presets",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"), c.String("log-level"))
			if err != nil {
				return err
			}
			catalog, err := config.NewCatalog(cfg.Commodities, cfg.Presets)
			if err != nil {
				return err
			}
			render.PresetTable(os.Stdout, catalog.Presets())
			return nil
		},
	}
}
