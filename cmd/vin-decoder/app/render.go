package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"vin-decoder-service/internal/domain/vehicle"
	"vin-decoder-service/internal/report"
	"vin-decoder-service/internal/service"
)

type renderOptions struct {
	in     string
	format string
	out    string
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved vehicle profile (JSON) as PDF or Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}

			format, err := service.ParseFormat(opts.format)
			if err != nil {
				return err
			}

			profile, err := readProfile(cmd, opts.in)
			if err != nil {
				return err
			}

			reports := service.NewReportService(report.NewGenerator(reportOptions(cfg.Report)), nil, log)
			doc, err := reports.RenderSubmitted(format, profile)
			if err != nil {
				return err
			}

			dest, err := writeOutput(cmd, opts.out, doc.Filename, doc.Data)
			if err != nil {
				return err
			}
			log.Info().Str("vin", profile.VIN).Str("output", dest).Int("pages", doc.Pages).Msg("render finished")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.in, "in", "i", "", `profile JSON file, "-" for stdin`)
	fs.StringVarP(&opts.format, "format", "f", "pdf", "output format: pdf or md")
	fs.StringVarP(&opts.out, "out", "o", "", `output path, "-" for stdout (default: generated report filename)`)
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func readProfile(cmd *cobra.Command, path string) (vehicle.Profile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return vehicle.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p vehicle.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return vehicle.Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}
