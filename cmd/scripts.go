package cmd

import (
	"github.com/spf13/cobra"

	"autoplay.dev/pkg/autoplay/internal/controller"
	"autoplay.dev/pkg/autoplay/internal/domain"
)

// scriptsCmd represents the scripts command.
var scriptsCmd = newScriptsCmd()

func newScriptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List the built-in classical play scripts",
		Run: func(cmd *cobra.Command, _ []string) {
			controller.NewSimpleUI(cmd).DisplayScripts(cmd.Context(), domain.ScriptNames())
		},
	}
}

func init() {
	rootCmd.AddCommand(scriptsCmd)
}
