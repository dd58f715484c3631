package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/guardview/guardview/internal/analyzer"
	"github.com/guardview/guardview/internal/config"
	"github.com/guardview/guardview/internal/llm"
	"github.com/guardview/guardview/internal/logger"
	"github.com/guardview/guardview/internal/models"
	"github.com/guardview/guardview/internal/netmon"
	"github.com/guardview/guardview/internal/pagecontext"
	"github.com/guardview/guardview/internal/server"
	"github.com/guardview/guardview/internal/storage"
	ws "github.com/guardview/guardview/internal/websocket"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		addr       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Server.ListenAddr = addr
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				cfg.Log.Level = "debug"
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	genkitApp := genkit.Init(
		ctx,
		genkit.WithPlugins(
			&googlegenai.GoogleAI{
				APIKey: cfg.LLM.APIKey,
			},
		),
		genkit.WithDefaultModel(cfg.LLM.Model),
	)

	phishingFlow := llm.DefinePhishingFlow(genkitApp, cfg.LLM.Model)

	hub := ws.NewHub(log.WithComponent("websocket"))

	analyzerOpts := []analyzer.Option{
		analyzer.WithBroadcaster(hub),
	}
	if cfg.PageContext.Enabled {
		fetcher := pagecontext.NewFetcher(
			cfg.PageContext.FetchTimeout,
			pagecontext.WithMaxBodyBytes(cfg.PageContext.MaxBodyBytes),
		)
		analyzerOpts = append(analyzerOpts, analyzer.WithSnapshot(fetcher.Fetch))
	}

	urlAnalyzer := analyzer.New(
		func(ctx context.Context, req *llm.AnalyzeRequest) (*models.PhishingVerdict, error) {
			return phishingFlow.Run(ctx, req)
		},
		log.WithComponent("analyzer"),
		analyzerOpts...,
	)

	loginHash := []byte(cfg.Login.PasswordHash)
	if len(loginHash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(config.DefaultDemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		loginHash = generated
		log.Warn("no DEMO_PASSWORD_HASH configured, using built-in demo password")
	}

	monitor := netmon.NewSimulator(0)

	srv := server.New(server.Options{
		Config:      cfg,
		Logger:      log.WithComponent("server"),
		Analyzer:    urlAnalyzer,
		Credentials: storage.NewCredentialStore(),
		Monitor:     monitor,
		Hub:         hub,
		Build: server.BuildInfo{
			Name:    "guardview",
			Version: getVersion(),
			Commit:  getCommit(),
		},
		LoginHash: loginHash,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		monitor.Run(ctx, 2*time.Second)
		return nil
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
