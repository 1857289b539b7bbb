// Package cmd provides the root command and CLI setup for autoplay.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"autoplay.dev/pkg/autoplay/internal/domain"
)

// Exit codes: infrastructure failures exit 1, behavioral findings
// (divergence, unreachable goal) exit 2 so CI can tell them apart.
const (
	exitInfrastructure = 1
	exitBehavioral     = 2
)

var pathsFileFlag string
var verboseFlag bool
var logFileFlag string

const rootLongDescription = `Autoplay drives a tile-based platformer through its game loop, predicts
every tick with a behavior model, and fails loudly the moment the game
disagrees with the model. It can replay known-good input paths, explore a
level on its own, or hand the controls to a human while the model watches.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autoplay",
		Short: "Autonomous play and conformance engine",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&pathsFileFlag, pathsFileFlagName, "f",
		viper.GetString(pathsFileKey),
		"YAML file holding recorded input paths",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(pathsFileFlagName), pathsFileKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var divergence *domain.DivergenceError
	if errors.As(err, &divergence) || errors.Is(err, domain.ErrGoalUnreachable) {
		return exitBehavioral
	}

	return exitInfrastructure
}
