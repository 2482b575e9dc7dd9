package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vin-decoder-service/internal/inference"
	"vin-decoder-service/internal/report"
	"vin-decoder-service/internal/service"
	"vin-decoder-service/internal/utils"
)

const formatJSON = "json"

type decodeOptions struct {
	vin    string
	format string
	out    string
}

func newDecodeCommand(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Look up a single VIN and write its report",
		Example: `  vin-decoder decode --vin W0L000051T123456
  vin-decoder decode --vin W0L000051T123456 --format json --out -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateInference(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			// Fail on a bad format before spending an inference call.
			format := strings.ToLower(strings.TrimSpace(opts.format))
			var reportFormat report.Format
			if format != formatJSON {
				if reportFormat, err = service.ParseFormat(format); err != nil {
					return err
				}
			}

			client, err := inference.NewGeminiClient(cmd.Context(), geminiConfig(cfg.Inference), log)
			if err != nil {
				return err
			}

			profile, err := service.NewLookupService(client, nil, nil, log).Decode(cmd.Context(), opts.vin)
			if err != nil {
				return err
			}

			var (
				data     []byte
				filename string
			)
			if format == formatJSON {
				if data, err = json.MarshalIndent(profile, "", "  "); err != nil {
					return fmt.Errorf("failed to encode profile: %w", err)
				}
				data = append(data, '\n')
				filename = utils.ReportFilename(profile.Make, profile.Model, profile.VIN, formatJSON)
			} else {
				reports := service.NewReportService(report.NewGenerator(reportOptions(cfg.Report)), nil, log)
				doc, err := reports.Render(reportFormat, profile)
				if err != nil {
					return err
				}
				data, filename = doc.Data, doc.Filename
			}

			dest, err := writeOutput(cmd, opts.out, filename, data)
			if err != nil {
				return err
			}
			log.Info().Str("vin", profile.VIN).Str("output", dest).Int("bytes", len(data)).Msg("decode finished")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.vin, "vin", "", "vehicle identification number")
	fs.StringVarP(&opts.format, "format", "f", "pdf", "output format: pdf, md or json")
	fs.StringVarP(&opts.out, "out", "o", "", `output path, "-" for stdout (default: generated report filename)`)
	_ = cmd.MarkFlagRequired("vin")

	return cmd
}
