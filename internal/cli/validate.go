package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/plantboard/internal/dataset"
	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

func newValidateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and load the source file once",
		Long: "Check the config and load the source file once. Prints the dataset status, " +
			"including missing columns and rejected cells, and fails unless the file loaded.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			store := dataset.NewStore(cfg)
			_, _, loadErr := store.Reload(cmd.Context())

			body, err := json.Marshal(store.Status())
			if err != nil {
				return errs.Wrap(err, "encode status")
			}
			if err := e.print(cmd.OutOrStdout(), body); err != nil {
				return err
			}
			if loadErr != nil {
				return fmt.Errorf("load %s: %w", cfg.Data.Path, loadErr)
			}
			return nil
		},
	}
}
