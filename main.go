// Command notebox 笔记服务的 API 与运维命令
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/config"
	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/logger"
	"github.com/weiwangfds/notebox/internal/router"
	"golang.org/x/net/http2"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

var configDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notebox",
		Short:         "Personal notes REST backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml (default . and ./config)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	return rootCmd
}

// bootstrap 加载配置、初始化日志并打开（已迁移的）数据库
func bootstrap() (*config.Config, *gorm.DB, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(&cfg.Log); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newHTTPServer 创建 HTTP 服务器并应用超时和 TLS 配置
// 开启 HTTPS 时，只有启用 HTTP/2 才会协商 h2；
// 空的 TLSNextProto 阻止 net/http 自动开启 HTTP/2
func newHTTPServer(cfg config.ServerConfig, handler http.Handler) (*http.Server, error) {
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	if !cfg.EnableHTTPS {
		return srv, nil
	}

	srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	if !cfg.EnableHTTP2 {
		srv.TLSConfig.NextProtos = []string{"http/1.1"}
		srv.TLSNextProto = map[string]func(*http.Server, *tls.Conn, http.Handler){}
		return srv, nil
	}
	if err := http2.ConfigureServer(srv, &http2.Server{}); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}
	return srv, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)

			r, err := router.NewRouter(cfg, db)
			if err != nil {
				return err
			}

			srv, err := newHTTPServer(cfg.Server, r.GetEngine())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				var err error
				if cfg.Server.EnableHTTPS {
					logger.Infof("HTTPS server listening on %s (HTTP/2: %v)", srv.Addr, cfg.Server.EnableHTTP2)
					err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
				} else {
					logger.Infof("HTTP server listening on %s", srv.Addr)
					err = srv.ListenAndServe()
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("forced shutdown: %w", err)
			}
			logger.Info("server exited")
			return nil
		},
	}
}
