package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/plugin-packager/internal/service/archiver"
)

// inspectCmd lists the entries of a built archive.
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List the files packed into an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := archiver.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		for _, entry := range entries {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), entry)
		}

		return nil
	},
}
