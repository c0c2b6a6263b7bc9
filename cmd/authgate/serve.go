package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-authgate"
	"github.com/goliatone/go-authgate/middleware/fiberguard"
	"github.com/goliatone/go-authgate/provider/jwtprovider"
	"github.com/goliatone/go-authgate/provider/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

func serveCmd() *cobra.Command {
	var devUsers []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guarded HTTP server",
		Long: `Run the HTTP server. Protected prefixes are guarded per session
cookie; /metrics exposes Prometheus metrics.

With AUTHGATE_PROVIDER_LOCAL=true sign in uses the --dev-user
credentials instead of bearer tokens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, devUsers)
		},
	}

	cmd.Flags().StringArrayVar(&devUsers, "dev-user", nil,
		"local sign in credential as token=id:email[:name] (repeatable)")

	return cmd
}

func runServe(ctx context.Context, devUsers []string) error {
	cfg, err := authgate.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := authgate.NewLogger("authgate.serve")

	store, release, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer release()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := authgate.NewMetrics(authgate.MetricsConfig{Registry: registry})

	reconciler := authgate.NewReconciler(store, cfg.AllowList(),
		authgate.WithRolePrecedence(authgate.RolePrecedence(cfg.RolePrecedence)),
		authgate.WithReconcilerMetrics(metrics),
	)

	factory, closeProvider, err := sessionFactory(cfg, devUsers, reconciler, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	sessions := fiberguard.NewSessions(factory, fiberguard.WithSessionTTL(cfg.HTTP.SessionTTL))
	defer sessions.Close()
	go sessions.Run(ctx, sweepInterval)

	guardCfg, err := cfg.GuardConfig()
	if err != nil {
		return err
	}
	guard := authgate.NewRouteGuard(guardCfg, authgate.WithGuardMetrics(metrics))

	mw := fiberguard.Config{
		Guard:        guard,
		Sessions:     sessions,
		CookieSecure: cfg.HTTP.SecureCookie,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Post(cfg.LoginPath, fiberguard.LoginHandler(mw))
	app.Post("/logout", fiberguard.LogoutHandler(mw))

	app.Use(fiberguard.New(mw))

	app.Get("/me", fiberguard.MeHandler(mw))
	app.Get(cfg.LoginPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "sign in with POST " + cfg.LoginPath})
	})
	app.Get("/*", func(c *fiber.Ctx) error {
		role, _ := authgate.RoleFromContext(c.UserContext())
		return c.JSON(fiber.Map{
			"path": c.Path(),
			"role": role.String(),
		})
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sessionFactory picks the identity provider each session gets.
func sessionFactory(cfg authgate.Config, devUsers []string, reconciler *authgate.Reconciler, logger authgate.Logger) (fiberguard.SessionFactory, func(), error) {
	noop := func() {}

	switch {
	case cfg.Provider.Local:
		users, err := parseDevUsers(devUsers)
		if err != nil {
			return nil, noop, err
		}
		return func() *authgate.Session {
			provider := memory.NewResolved(nil)
			for token, identity := range users {
				provider.Register(token, identity)
			}
			return authgate.NewSession(provider, cfg.Provider, reconciler)
		}, noop, nil

	case cfg.Provider.HasMinimalConfig():
		validator, err := jwtprovider.NewValidator(jwtprovider.FromProviderConfig(cfg.Provider))
		if err != nil {
			return nil, noop, err
		}
		return func() *authgate.Session {
			return authgate.NewSession(jwtprovider.New(validator), cfg.Provider, reconciler)
		}, validator.Close, nil

	default:
		logger.Warn("identity provider not configured, every session stays signed out")
		return func() *authgate.Session {
			return authgate.NewSession(nil, cfg.Provider, reconciler)
		}, noop, nil
	}
}

func parseDevUsers(values []string) (map[string]*authgate.Identity, error) {
	users := make(map[string]*authgate.Identity, len(values))
	for _, value := range values {
		token, rest, ok := strings.Cut(value, "=")
		parts := strings.SplitN(rest, ":", 3)
		if !ok || token == "" || len(parts) < 2 || parts[0] == "" {
			return nil, errors.New("dev-user must look like token=id:email[:name]")
		}

		identity := &authgate.Identity{ID: parts[0], Email: parts[1]}
		if len(parts) == 3 {
			identity.DisplayName = parts[2]
		}
		users[token] = identity
	}
	return users, nil
}
