package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"autoplay.dev/pkg/autoplay/internal/adapter"
	"autoplay.dev/pkg/autoplay/internal/controller"
	"autoplay.dev/pkg/autoplay/internal/domain"
	m "autoplay.dev/pkg/autoplay/internal/model"
	"autoplay.dev/pkg/autoplay/internal/simworld"
)

var playModeFlag string
var playSecondsFlag int
var tickRateFlag int
var withModelFlag bool
var scriptFlag string
var savePathsFlag bool
var loadPathsFlag bool
var videoFlag string
var journalFlag string

// playCmd represents the play command.
var playCmd = newPlayCmd()

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the built-in level",
		Long: `Play one session against the built-in level.

Modes:
  autonomous  replay the best stored path, or explore when none fits
  manual      interactive keyboard play, optionally watched by the model
  classical   run a fixed built-in input script (see 'autoplay scripts')`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := domain.ParseMode(viper.GetString(playModeKey))
			if err != nil {
				return err
			}

			return runPlay(cmd, mode)
		},
	}

	configurePlayFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func configurePlayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&playModeFlag, playModeFlagName, "m", viper.GetString(playModeKey), "session mode: autonomous, manual or classical")
	bindFlagToConfig(cmd.Flags().Lookup(playModeFlagName), playModeKey)

	cmd.Flags().IntVar(&playSecondsFlag, playSecondsFlagName, viper.GetInt(playSecondsKey), "stop after this many seconds of game time (0 = no limit)")
	bindFlagToConfig(cmd.Flags().Lookup(playSecondsFlagName), playSecondsKey)

	cmd.Flags().IntVar(&tickRateFlag, tickRateFlagName, viper.GetInt(tickRateKey), "game ticks per second")
	bindFlagToConfig(cmd.Flags().Lookup(tickRateFlagName), tickRateKey)

	cmd.Flags().BoolVar(&withModelFlag, withModelFlagName, false, "run the behavior model and oracle during manual play")
	cmd.Flags().StringVar(&scriptFlag, scriptFlagName, "", "built-in script name for classical mode")
	cmd.Flags().StringVar(&videoFlag, videoFlagName, "", "record the session to an animated GIF")
	cmd.Flags().StringVar(&journalFlag, journalFlagName, "", "write every model transition to a gob journal file")

	cmd.Flags().BoolVar(&savePathsFlag, savePathsFlagName, viper.GetBool(savePathsKey), "persist newly discovered paths")
	bindFlagToConfig(cmd.Flags().Lookup(savePathsFlagName), savePathsKey)

	cmd.Flags().BoolVar(&loadPathsFlag, loadPathsFlagName, viper.GetBool(loadPathsKey), "replay stored paths when one fits the level")
	bindFlagToConfig(cmd.Flags().Lookup(loadPathsFlagName), loadPathsKey)
}

func runPlay(cmd *cobra.Command, mode domain.Mode) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world := simworld.New(simworld.DefaultLevel())
	channel := adapter.NewInputChannel(world)
	observer := adapter.NewFeedObserver(world)
	store := adapter.NewFilePathStore(viper.GetString(pathsFileKey))
	params := domain.DefaultParams()
	oracle := domain.NewOracle(domain.DefaultTolerance())
	explorer := domain.NewExplorer(params, domain.DefaultExplorerConfig(), world, channel, observer)

	tickRate := viper.GetInt(tickRateKey)
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}

	var recorder *adapter.Recorder
	if videoFlag != "" {
		// GIF delays are in centiseconds.
		delay := 100 / tickRate
		if delay < 1 {
			delay = 1
		}

		recorder = adapter.NewRecorder(videoFlag, delay)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var input domain.InputSource

	var tui *controller.ManualTUI

	if mode == domain.ModeManual {
		tui = controller.NewManualTUI(cmd.OutOrStdout(), tickRate)
		if err := tui.Start(groupCtx); err != nil {
			return err
		}

		group.Go(tui.Run)

		input = tui
	}

	cfg := domain.SessionConfig{
		Mode:        mode,
		WithModel:   withModelFlag,
		Script:      scriptFlag,
		PlaySeconds: viper.GetInt(playSecondsKey),
		TickRate:    tickRate,
		LoadPaths:   viper.GetBool(loadPathsKey),
		SavePaths:   viper.GetBool(savePathsKey),
		VideoFile:   videoFlag,
		JournalFile: journalFlag,
	}

	session := domain.NewSession(params, cfg, world, channel, observer, store, explorer, oracle, recorder, input)

	ui := controller.NewSimpleUI(cmd)
	if mode != domain.ModeManual {
		ui.DisplaySessionStart(ctx, string(mode), simworld.DefaultLevel().Name)
	}

	var result m.SessionResult

	if recorder != nil {
		// The session closes the frame queue on its way out; the
		// encoder member exits when the queue drains.
		group.Go(func() error { return recorder.Run(groupCtx) })
	}

	group.Go(func() error {
		if tui != nil {
			defer tui.Stop()
		}

		var err error

		result, err = session.Run(groupCtx)

		return err
	})

	err := group.Wait()

	if errors.Is(err, controller.ErrQuit) {
		err = nil
	}

	if displayErr := ui.DisplayResult(ctx, result); displayErr != nil && err == nil {
		err = displayErr
	}

	var divergence *domain.DivergenceError
	if errors.As(err, &divergence) {
		ui.DisplayDivergence(ctx, divergence.Report, oracle.RenderDiff())
	}

	return err
}
