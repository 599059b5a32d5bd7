package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/support-console/internal/authapi"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/gateway"
	"github.com/spec-kit/support-console/internal/httpclient"
	"github.com/spec-kit/support-console/internal/observability"
	"github.com/spec-kit/support-console/internal/persistence"
	"github.com/spec-kit/support-console/internal/session"
)

// app holds the wired client stack for one invocation.
type app struct {
	logger   *zap.Logger
	metrics  *observability.Metrics
	store    *session.Store
	provider *session.Provider
	gateway  *gateway.Gateway
	out      io.Writer

	// readPassword prompts for a password when --password is not given.
	readPassword func() (string, error)

	closeBackend func()
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	backend, closeBackend, err := persistence.OpenBackend(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout(),
		UserAgent: cfg.API.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		closeBackend()
		return nil, err
	}

	return wire(backend, closeBackend, hc, session.WithPrefix(cfg.Session.KeyPrefix), logger, out), nil
}

// wire assembles the stack over an already opened backend and client.
func wire(backend session.Backend, closeBackend func(), hc *httpclient.Client, prefix session.StoreOption, logger *zap.Logger, out io.Writer) *app {
	metrics := observability.NewMetrics()
	api := authapi.New(hc)
	store := session.NewStore(backend, prefix, session.WithLogger(logger))
	refresher := session.NewRefresher(store, api, logger, metrics)

	return &app{
		logger:       logger,
		metrics:      metrics,
		store:        store,
		provider:     session.NewProvider(store, api, refresher, logger),
		gateway:      gateway.New(hc, store, refresher, logger, metrics),
		out:          out,
		readPassword: promptPassword,
		closeBackend: closeBackend,
	}
}

func (a *app) Close() {
	a.provider.Close()
	a.closeBackend()
	_ = a.logger.Sync()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available for the password prompt (use --password)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}
