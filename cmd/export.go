package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/404FoundingFather/ollama-model-manager/manager"
)

func cmdExport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export MODEL TAG OUTPUT",
		Short: "Export a model to a tar.gz archive",
		Args:  cobra.ExactArgs(3),
		RunE:  exportHandler,
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite the output file if it exists")

	return cmd
}

func exportHandler(cmd *cobra.Command, args []string) error {
	model, tag, output := args[0], args[1], args[2]

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(output); err == nil && !force {
		ok, err := confirm(fmt.Sprintf("File %s already exists. Overwrite?", output))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Export cancelled.")
			return nil
		}
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	manifestPath, err := m.ResolveManifest(model, tag)
	if err != nil {
		return err
	}

	err = runWithProgress(cmd.Context(), fmt.Sprintf("exporting %s:%s", model, tag),
		func(ctx context.Context, fn manager.ProgressFunc) error {
			return m.Export(ctx, manifestPath, model, tag, output, fn)
		})
	if err != nil {
		return err
	}

	fmt.Printf("Model exported successfully to %s\n", output)
	return nil
}
