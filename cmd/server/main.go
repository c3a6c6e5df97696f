package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"auth-backend/internal/account"
	"auth-backend/internal/auth"
	"auth-backend/internal/cache"
	"auth-backend/internal/config"
	"auth-backend/internal/logger"
	"auth-backend/internal/metrics"
	"auth-backend/internal/policy"
	"auth-backend/internal/server"
	"auth-backend/internal/session"
	"auth-backend/internal/store"
	"auth-backend/internal/worker"
)

func main() {
	var configDir string

	root := &cobra.Command{
		Use:           "auth-server",
		Short:         "Session issuance and RBAC permission service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configDir)
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding app.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configDir)
		},
	})
	root.AddCommand(permissionsCmd(&configDir))
	root.AddCommand(tokenCmd(&configDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(dir string) (*config.Config, error) {
	if dir == "" {
		return config.Load()
	}
	return config.Load(dir)
}

func serve(ctx context.Context, configDir string) error {
	// 1. Load config
	cfg, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Env:         cfg.Log.Env,
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		ServiceName: "auth",
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.L()
	log.Info("config loaded",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("db", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)),
		zap.Int("workers", cfg.Server.Workers))

	// 3. Database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if cfg.Database.Bootstrap {
		if err := db.Bootstrap(ctx); err != nil {
			return err
		}
	}
	log.Info("database connected")

	// 4. Policy, loaded once for the process lifetime
	enforcer, err := policy.NewEnforcer(cfg.Policy)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}
	log.Info("policy loaded",
		zap.String("model", cfg.Policy.ModelPath), zap.String("rules", cfg.Policy.PolicyPath))

	// 5. Account lookup, optionally cached
	var finder account.Finder = account.NewRepository(db.Pool, cfg.Database.QueryTimeout())
	cacheClient, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if cacheClient != nil {
		defer cacheClient.Close()
		finder = account.NewCachedFinder(finder, cacheClient, cfg.Cache.TTL())
		log.Info("account cache enabled", zap.String("driver", cfg.Cache.Driver))
	}

	// 6. Services
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.AccessTokenLifetime(), cfg.RefreshTokenLifetime())
	log.Info("token service ready",
		zap.Duration("access_ttl", tokens.AccessTTL()), zap.Duration("refresh_ttl", tokens.RefreshTTL()))
	m := metrics.New()
	sessions := session.NewService(
		finder,
		tokens,
		policy.NewService(enforcer),
		worker.NewPool(cfg.Server.Workers),
		m,
	)

	// 7. HTTP
	app := server.New(server.Deps{
		Sessions: sessions,
		Metrics:  m,
		Logger:   log,
		Health:   db.Pool.Ping,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", cfg.Server.Addr()))
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return app.Shutdown()
	}
}

func permissionsCmd(configDir *string) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the permission map of a role from the configured policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			enforcer, err := policy.NewEnforcer(cfg.Policy)
			if err != nil {
				return err
			}
			perms, err := policy.NewService(enforcer).PermissionsForRole(role)
			if err != nil {
				return err
			}
			return printJSON(cmd, perms)
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.GuestRole, "policy subject to resolve")
	return cmd
}

func tokenCmd(configDir *string) *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Token utilities",
	}
	var refresh bool
	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a token with the configured secret and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configDir)
			if err != nil {
				return err
			}
			tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.AccessTokenLifetime(), cfg.RefreshTokenLifetime())
			if refresh {
				claims, err := tokens.ParseRefreshToken(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, inspected{Claims: claims, ExpiresAt: claims.ExpiresAt()})
			}
			claims, err := tokens.ParseAccessToken(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, inspected{Claims: claims, ExpiresAt: claims.ExpiresAt()})
		},
	}
	inspect.Flags().BoolVar(&refresh, "refresh", false, "treat the token as a refresh token")
	token.AddCommand(inspect)
	return token
}

type inspected struct {
	Claims    any       `json:"claims"`
	ExpiresAt time.Time `json:"expires_at"`
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
