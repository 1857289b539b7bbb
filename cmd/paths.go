package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	"autoplay.dev/pkg/autoplay/internal/controller"
	"autoplay.dev/pkg/autoplay/internal/simworld"
)

var pathsLevelFlag string

// pathsCmd represents the paths command.
var pathsCmd = newPathsCmd()

func newPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "List recorded input paths",
		Long: `List the input paths recorded for a level, best score first. Paths whose
level checksum no longer matches the live layout are still listed; they are
skipped at replay time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := pathsLevelFlag
			if level == "" {
				level = simworld.DefaultLevel().Name
			}

			store := adapter.NewFilePathStore(viper.GetString(pathsFileKey))

			paths, err := store.Load(cmd.Context(), level)
			if err != nil {
				return err
			}

			return controller.NewSimpleUI(cmd).DisplayPaths(cmd.Context(), level, paths)
		},
	}

	cmd.Flags().StringVarP(&pathsLevelFlag, levelFlagName, "l", "", "level name (default: the built-in level)")

	return cmd
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
