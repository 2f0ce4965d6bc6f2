package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"wxadapter/tools/ioc"
	"wxadapter/tools/logger"
	"wxadapter/wechat/config"

	_ "wxadapter/wechat/pkg/bot"
	_ "wxadapter/wechat/pkg/handler"
	_ "wxadapter/wechat/pkg/reg"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			os.Setenv("CONFIG_FILE", cfgFile)
		}
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 创建日志记录器
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Starting wechat adapter service...")

	// 初始化 IOC 容器
	if err := ioc.ConController.Init(); err != nil {
		return fmt.Errorf("failed to init ioc: %w", err)
	}
	if err := ioc.Api.Init(); err != nil {
		return fmt.Errorf("failed to init ioc: %w", err)
	}

	// 注册 Prometheus 指标接口
	cfg.Application.GinServer().GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 配置HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      cfg.Application.GinServer(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("Shutting down server...")

	// 设置可配置的超时时间来关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if rdb := cfg.GetRedis(); rdb != nil {
		_ = rdb.Close()
	}

	log.Info("Server exited")
	return nil
}
