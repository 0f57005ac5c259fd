package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
	"github.com/gyaneshwarpardhi/plantboard/internal/render"
)

func newChartCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "chart categories|production",
		Short:     "Render a dashboard chart as PNG",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"categories", "production"},
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := queryFlags(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")
			size := render.Size{Width: width, Height: height}

			svc, err := e.service(cmd.Context())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			switch args[0] {
			case "categories":
				sum, err := svc.Summary(cmd.Context(), q)
				if err != nil {
					return err
				}
				if err := render.Categories(&buf, sum.Series, size); err != nil {
					return err
				}
			case "production":
				if q.Product == "" {
					return fmt.Errorf("--product is required for the production chart")
				}
				v, err := svc.Production(cmd.Context(), q)
				if err != nil {
					return err
				}
				if err := render.Production(&buf, v.Rollup, svc.Store().Config().Abbreviations, size); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown chart %q", args[0])
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return errs.Wrap(err, "write chart")
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return errs.Wrapf(err, "write chart %s", out)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, buf.Len())
			return nil
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "output file; stdout when empty")
	cmd.Flags().Int("width", 0, "image width in pixels")
	cmd.Flags().Int("height", 0, "image height in pixels")
	return cmd
}
