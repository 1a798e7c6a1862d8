package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyboard-backend/internal/config"
	"storyboard-backend/internal/logging"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/server"
)

func newRenderCmd() *cobra.Command {
	cfg := config.FromEnv().Renderer
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a document to video",
		Long: "Hands the document to the configured renderer and prints the resulting video URL.\n" +
			"Defaults come from the RENDERER_* environment variables.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, err := logging.New(config.LogConfig{Level: level, Development: true})
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := render.NewService(server.NewRenderer(cfg, logger), nil, nil, logger)
			res, err := svc.Trigger(ctx, "storyctl", doc)
			if err != nil {
				var rerr *render.Error
				if errors.As(err, &rerr) && rerr.Logs != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), rerr.Logs)
				}
				logger.Debug("render failed", zap.Error(err))
				return err
			}

			if res.Logs != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Logs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.VideoURL)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Mode, "mode", cfg.Mode, "renderer mode: process or http")
	f.StringVar(&cfg.PythonBin, "python", cfg.PythonBin, "python interpreter for the render script")
	f.StringVar(&cfg.Script, "script", cfg.Script, "render script path")
	f.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "video output path")
	f.StringVar(&cfg.VideoURL, "video-url", cfg.VideoURL, "URL reported for the rendered video")
	f.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "remote renderer endpoint (http mode)")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "render timeout")
	f.BoolVarP(&verbose, "verbose", "v", false, "log renderer activity")
	return cmd
}
