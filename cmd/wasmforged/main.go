package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmforge/wasmforge/config"
	"github.com/wasmforge/wasmforge/server"
)

func newDaemonCommand() *cobra.Command {
	opts := newDaemonOptions()

	cmd := &cobra.Command{
		Use:           "wasmforged",
		Short:         "WasmForge tool-serving gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), opts)
		},
	}
	opts.installFlags(cmd.Flags())
	return cmd
}

func runDaemon(ctx context.Context, opts *daemonOptions) error {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	configPath := opts.configFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	cfg, err := config.LoadOrCreateDefault(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}

	log.WithField("path", configPath).Info("WasmForge configuration loaded")

	srv, err := server.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer srv.Close(ctx)

	host := opts.host
	if host == "127.0.0.1" && cfg.Server.DefaultHost != "" {
		host = cfg.Server.DefaultHost
	}

	port := opts.port
	if port == 0 && cfg.Server.DefaultPort != nil {
		port = *cfg.Server.DefaultPort
	}

	if port != 0 {
		return srv.RunTCP(ctx, host, port)
	}
	return srv.RunStdio(ctx, os.Stdin, os.Stdout)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newDaemonCommand()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("WasmForge server exited with an error")
	}
}
