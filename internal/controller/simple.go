package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplaySessionStart announces the session.
func (s *SimpleUI) DisplaySessionStart(ctx context.Context, mode string, level string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Playing %s in %s mode\n", level, mode)
}

// DisplayResult prints the session summary table.
func (s *SimpleUI) DisplayResult(ctx context.Context, result m.SessionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Field", "Value"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	table.Append([]string{"Outcome", string(result.Outcome)})
	table.Append([]string{"Mode", result.Mode})
	table.Append([]string{"Ticks", strconv.FormatUint(result.Ticks, 10)})
	table.Append([]string{"Level", result.Final.Level})
	table.Append([]string{"Final state", string(result.Final.State)})
	table.Append([]string{"Score", strconv.Itoa(result.Final.Score)})
	table.Append([]string{"Lives", strconv.Itoa(result.Final.Lives)})
	table.Append([]string{"Position", fmt.Sprintf("%.0f/%.0f", result.Final.X, result.Final.GoalX)})

	if result.PathName != "" {
		table.Append([]string{"Path", result.PathName})
	}

	if result.PathSaved {
		table.Append([]string{"Path saved", "yes"})
	}

	if result.VideoFile != "" {
		table.Append([]string{"Video", result.VideoFile})
	}

	table.Render()
	s.printf("\n%s", buf.String())

	return nil
}

// DisplayDivergence prints the failure report: the diverged field, the
// actions leading up to it, and the expected/observed trace diff.
func (s *SimpleUI) DisplayDivergence(ctx context.Context, report *m.DivergenceReport, diff string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\nDIVERGENCE at tick %d\n", report.Tick)
	s.printf("Field:    %s\n", report.Field)
	s.printf("Expected: %s\n", report.Expected)
	s.printf("Observed: %s\n", report.Actual)

	if report.Cause != "" {
		s.printf("Cause:    %s\n", report.Cause)
	}

	if len(report.LastActions) > 0 {
		s.printf("Recent inputs:\n")

		for _, action := range report.LastActions {
			s.printf("  %s\n", action)
		}
	}

	if diff != "" {
		s.printf("\n%s\n", diff)
	}
}

// DisplayPaths prints the stored paths for a level.
func (s *SimpleUI) DisplayPaths(ctx context.Context, level string, paths []m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(paths) == 0 {
		s.printf("No stored paths for %s\n", level)
		return nil
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Name", "Score", "Ticks", "Checksum"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, path := range paths {
		checksum := path.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}

		table.Append([]string{
			path.Name,
			strconv.Itoa(path.Score),
			strconv.Itoa(path.TickLength()),
			checksum,
		})
	}

	table.SetFooter([]string{fmt.Sprintf("Total %d", len(paths)), "", "", ""})
	table.Render()
	s.printf("\n%s", buf.String())

	return nil
}

// DisplayScripts lists the built-in classical scripts.
func (s *SimpleUI) DisplayScripts(ctx context.Context, names []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Available scripts:\n")

	for _, name := range names {
		s.printf("  %s\n", name)
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
