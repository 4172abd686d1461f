package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/negotiation"
	"github.com/tanpawarit/ai-sales-assistant/pkg/capture"
	configx "github.com/tanpawarit/ai-sales-assistant/pkg/config"
	"github.com/tanpawarit/ai-sales-assistant/pkg/listing"
	logx "github.com/tanpawarit/ai-sales-assistant/pkg/logger"
	"github.com/tanpawarit/ai-sales-assistant/server/httpapi"
	"github.com/tanpawarit/ai-sales-assistant/server/mcpapi"
)

func serveCommand(ctx context.Context, appCfg AppConfig) error {
	svc, err := newServices(ctx, appCfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	httpCfg := configx.MustNew[httpapi.Config]("HTTP")
	handler := httpapi.NewHandler(svc.interactions, svc.negotiations, svc.repo)
	server := httpapi.NewServer(*httpCfg, httpapi.NewRouter(*httpCfg, handler))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpCfg.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("http server shutting down")
	return server.Shutdown(shutdownCtx)
}

func mcpCommand(ctx context.Context, appCfg AppConfig) error {
	// stdout carries the protocol.
	logCfg := configx.MustNew[logx.Config]("LOG")
	log.Logger = logx.New(os.Stderr, *logCfg)

	svc, err := newServices(ctx, appCfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := mcpapi.NewServer(version, mcpapi.NewHandlers(svc.interactions, svc.negotiations, svc.repo))
	return mcpapi.Serve(ctx, server)
}

func ingestCommand(ctx context.Context, appCfg AppConfig, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	file := fs.String("file", "", "car listing CSV to index (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		return errors.New("ingest: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open listings: %w", err)
	}
	defer f.Close()

	docs, err := listing.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read listings: %w", err)
	}

	index, embCfg, err := openIndex(appCfg)
	if err != nil {
		return err
	}
	defer index.Close()

	stored, err := index.Rebuild(ctx, docs, embCfg.BatchSize)
	if err != nil {
		return err
	}
	log.Info().Str("file", *file).Int("rows", len(docs)).Int("documents", stored).Msg("listing index rebuilt")
	return nil
}

func seedCommand(ctx context.Context, appCfg AppConfig) error {
	repo, err := openRepository(ctx, appCfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	inserted, err := repo.Seed(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("customers", inserted).Msg("seed complete")
	return nil
}

func negotiateCommand(ctx context.Context, appCfg AppConfig, args []string) error {
	fs := flag.NewFlagSet("negotiate", flag.ContinueOnError)
	name := fs.String("name", "", "customer name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("negotiate: -name is required")
	}

	captureCfg := configx.MustNew[capture.Config]("CAPTURE")
	listener, err := newListener(*captureCfg)
	if err != nil {
		return err
	}
	defer closeListener(listener)

	svc, err := newServices(ctx, appCfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	session := capture.Start(ctx, listener, captureCfg.Buffer)
	defer session.Stop()

	return negotiation.RunConsole(ctx, svc.negotiations, session.Results(), *name, os.Stdout)
}

func coachCommand(ctx context.Context) error {
	captureCfg := configx.MustNew[capture.Config]("CAPTURE")
	listener, err := newListener(*captureCfg)
	if err != nil {
		return err
	}
	defer closeListener(listener)

	coach, err := newCoach(ctx)
	if err != nil {
		return err
	}

	session := capture.Start(ctx, listener, captureCfg.Buffer)
	defer session.Stop()

	coached := coach.Run(ctx, session.Results(), os.Stdout)
	log.Info().Int("utterances", coached).Msg("coaching finished")
	return nil
}

// closeListener releases listeners that hold a reader goroutine.
func closeListener(l capture.Listener) {
	if c, ok := l.(io.Closer); ok {
		_ = c.Close()
	}
}

func newListener(cfg capture.Config) (capture.Listener, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", "stdin":
		return capture.NewLineListener(os.Stdin, cfg.ListenTimeout), nil
	case "whisper":
		client, err := capture.NewWhisperClient(cfg)
		if err != nil {
			return nil, err
		}
		return capture.NewWhisperListener(client, cfg)
	default:
		return nil, fmt.Errorf("unknown capture source %q", cfg.Source)
	}
}
