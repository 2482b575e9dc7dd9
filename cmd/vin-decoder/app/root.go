package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vin-decoder-service/internal/config"
	"vin-decoder-service/internal/inference"
	"vin-decoder-service/internal/logger"
	"vin-decoder-service/internal/report"
)

type rootOptions struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "vin-decoder",
		Short:        "Decode VINs into vehicle build sheets and PDF reports",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCommand(opts),
		newDecodeCommand(opts),
		newRenderCommand(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.Log), nil
}

func reportOptions(cfg config.ReportConfig) report.Options {
	opts := report.DefaultOptions()
	if cfg.ProductName != "" {
		opts.ProductName = cfg.ProductName
	}
	opts.Compress = cfg.Compress
	return opts
}

func geminiConfig(cfg config.InferenceConfig) inference.GeminiConfig {
	return inference.GeminiConfig{
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}
}

// writeOutput writes data to path, to stdout for "-", or to fallback when
// path is empty. It returns where the data went.
func writeOutput(cmd *cobra.Command, path, fallback string, data []byte) (string, error) {
	if path == "-" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		return "stdout", nil
	}
	if path == "" {
		path = fallback
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
