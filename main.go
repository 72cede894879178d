package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"who-is-spy-offline/internal/api/http"
	"who-is-spy-offline/internal/config"
	"who-is-spy-offline/internal/logger"
	"who-is-spy-offline/internal/service"
	"who-is-spy-offline/internal/service/words"
	"who-is-spy-offline/internal/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const releaseVersion = "0.3.0"

func newCmd() *cobra.Command {
	v := config.NewViper()

	var configFile string

	cmd := &cobra.Command{
		Use:           "who-is-spy",
		Short:         "Pass-and-play \"Who is the Spy\" facilitator for a single device.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 加载配置
			cfg, err := config.InitConfig(v, configFile)
			if err != nil {
				return err
			}

			// 初始化日志器
			sync, err := logger.InitLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer sync()

			bank, err := words.LoadBank()
			if err != nil {
				return err
			}

			sessionSvc := service.NewSessionService(bank, service.SessionOptions{
				WordFetchTimeout: cfg.WordFetchTimeout,
				SessionTimeout:   cfg.SessionTimeout,
			})
			defer sessionSvc.Close()

			// 组装应用状态
			appState := state.NewAppState(cfg, bank, sessionSvc)

			zap.L().Info("服务启动", zap.String("addr", cfg.Addr()), zap.String("version", releaseVersion))

			// 启动服务器
			return http.RunServer(cmd.Context(), appState)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a config file (default ./app_config.json when present)")
	config.BindFlags(flags, v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("who-is-spy v{{.Version}}\n")

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
