package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/404FoundingFather/ollama-model-manager/manager"
)

func cmdDelete() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete MODEL TAG",
		Aliases: []string{"rm"},
		Short:   "Delete a model and its blobs from the local repository",
		Args:    cobra.ExactArgs(2),
		RunE:    deleteHandler,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func deleteHandler(cmd *cobra.Command, args []string) error {
	model, tag := args[0], args[1]

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		ok, err := confirm(fmt.Sprintf("Are you sure you want to delete model %s:%s?", model, tag))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Deletion cancelled.")
			return nil
		}
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	err = runWithProgress(cmd.Context(), fmt.Sprintf("deleting %s:%s", model, tag),
		func(ctx context.Context, fn manager.ProgressFunc) error {
			return m.Delete(ctx, model, tag, fn)
		})
	if err != nil {
		return err
	}

	fmt.Printf("Model %s:%s deleted successfully\n", model, tag)
	return nil
}
