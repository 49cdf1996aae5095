package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/urfave/cli/v2"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/engine"
	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/automod/rules"
	"github.com/parlorchat/guardian/automod/tempban"
	"github.com/parlorchat/guardian/automod/windowstore"
	"github.com/parlorchat/guardian/platform"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "guardian",
		Usage:   "moderation decision and enforcement daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "directory for policy, audit log, and tempban state",
			Value:   "data/guardian",
			EnvVars: []string{"GUARDIAN_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the message event ingest API",
			Value:   ":3990",
			EnvVars: []string{"GUARDIAN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"GUARDIAN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for the spam window store; empty uses in-process memory",
			EnvVars: []string{"GUARDIAN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "platform-host",
			Usage:   "base URL of the chat platform moderation gateway",
			Value:   "http://localhost:4000",
			EnvVars: []string{"GUARDIAN_PLATFORM_HOST"},
		},
		&cli.StringFlag{
			Name:    "platform-token",
			Usage:   "bearer token for the platform gateway",
			EnvVars: []string{"GUARDIAN_PLATFORM_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "platform-rate-limit",
			Usage:   "max enforcement requests per second to the platform",
			Value:   20,
			EnvVars: []string{"GUARDIAN_PLATFORM_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"GUARDIAN_LOG_LEVEL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cctx.String("log-level")),
		}))
		slog.SetDefault(logger)

		dataDir := cctx.String("data-dir")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}

		policies, err := policystore.NewFileStore(filepath.Join(dataDir, "server_settings.json"), logger)
		if err != nil {
			return err
		}
		audit, err := auditlog.NewFileStore(filepath.Join(dataDir, "logs"), logger)
		if err != nil {
			return err
		}

		var windows windowstore.Store
		if u := cctx.String("redis-url"); u != "" {
			rws, err := windowstore.NewRedisStore(u)
			if err != nil {
				return err
			}
			windows = rws
			logger.Info("using redis spam window store")
		} else {
			windows = windowstore.NewMemStore()
		}

		var client platform.Client = platform.NewRESTClient(
			cctx.String("platform-host"), cctx.String("platform-token"))
		client = platform.NewRateLimitedClient(client, cctx.Int("platform-rate-limit"))

		tempbans := tempban.NewScheduler(filepath.Join(dataDir, "tempbans.json"), client, logger)
		if err := tempbans.Load(ctx); err != nil {
			return err
		}
		defer tempbans.Shutdown()

		eng := &engine.Engine{
			Logger:   logger,
			Rules:    rules.DefaultRules(),
			Policies: policies,
			Windows:  windows,
			Audit:    audit,
			Client:   client,
			Tempbans: tempbans,
		}
		// the platform gateway POSTs message events here; per-tenant ordering
		// is the gateway's responsibility
		go func() {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /events/message", func(w http.ResponseWriter, r *http.Request) {
				var msg engine.MessageEvent
				if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
					http.Error(w, "malformed message event", http.StatusBadRequest)
					return
				}
				if msg.TenantID == "" || msg.AuthorID == "" {
					http.Error(w, "tenant_id and author_id required", http.StatusBadRequest)
					return
				}
				// tenant IDs end up in store filenames; never accept path syntax
				if strings.ContainsAny(msg.TenantID, `/\`) || strings.Contains(msg.TenantID, "..") {
					http.Error(w, "invalid tenant_id", http.StatusBadRequest)
					return
				}
				if err := eng.ProcessMessage(r.Context(), msg); err != nil {
					logger.Warn("message processing failed", "tenant", msg.TenantID, "err", err)
					http.Error(w, "processing failed", http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})
			if err := http.ListenAndServe(cctx.String("bind"), mux); err != nil {
				logger.Error("ingest listener failed", "err", err)
			}
		}()

		go func() {
			runtime := http.NewServeMux()
			runtime.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cctx.String("metrics-listen"), runtime); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()

		logger.Info("guardian running", "data-dir", dataDir, "version", versioninfo.Short())

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		return nil
	},
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
