package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/404FoundingFather/ollama-model-manager/envconfig"
	"github.com/404FoundingFather/ollama-model-manager/manager"
)

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "ollama-manager",
		Short:         "Manage the local Ollama model repository",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: envconfig.LogLevel(),
			})))
		},
	}

	rootCmd.AddCommand(
		cmdList(),
		cmdExport(),
		cmdImport(),
		cmdDelete(),
	)

	return rootCmd
}

func newManager(opts ...manager.Option) (*manager.Manager, error) {
	return manager.New(append(opts, manager.WithLogger(slog.Default()))...)
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s (y/N): ", prompt)

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false, scanner.Err()
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
