package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/404FoundingFather/ollama-model-manager/manager"
)

func cmdImport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import ARCHIVE",
		Short: "Import a model from a tar.gz archive",
		Args:  cobra.ExactArgs(1),
		RunE:  importHandler,
	}

	cmd.Flags().String("name", "", "Custom name for the imported model (format: name:tag)")
	cmd.Flags().Bool("verify", false, "Verify blob contents against their digests")

	return cmd
}

func importHandler(cmd *cobra.Command, args []string) error {
	archive := args[0]
	name, _ := cmd.Flags().GetString("name")
	verify, _ := cmd.Flags().GetBool("verify")

	m, err := newManager(manager.WithVerify(verify))
	if err != nil {
		return err
	}

	err = runWithProgress(cmd.Context(), "importing "+filepath.Base(archive),
		func(ctx context.Context, fn manager.ProgressFunc) error {
			return m.Import(ctx, archive, name, fn)
		})
	if err != nil {
		return err
	}

	fmt.Println("Model imported successfully")
	return nil
}
