package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "autoplay.dev/pkg/autoplay/internal/model"
)

// ErrQuit is returned by NextAction when the player closes the TUI.
var ErrQuit = errors.New("player quit")

// Terminals report key presses but never key releases, so one press holds
// its control for a fixed number of ticks.
const holdTicks = 10

// ManualTUI is the interactive play surface. It renders the live snapshot
// with Bubble Tea and turns key presses into per-tick actions for the
// session driver.
type ManualTUI struct {
	output   io.Writer
	tick     time.Duration
	program  *tea.Program
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	mu        sync.Mutex
	heldUntil map[m.Control]time.Time
}

// NewManualTUI creates a TUI paced at the given tick rate.
func NewManualTUI(output io.Writer, tickRate int) *ManualTUI {
	if tickRate <= 0 {
		tickRate = 60
	}

	return &ManualTUI{
		output:    output,
		tick:      time.Second / time.Duration(tickRate),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		heldUntil: make(map[m.Control]time.Time),
	}
}

// Start builds the Bubble Tea program. The program does not run until Run;
// ctx bounds its whole lifetime.
func (t *ManualTUI) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newPlayModel(t.press, t.requestQuit)
	t.program = tea.NewProgram(model,
		tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))

	return nil
}

// Run executes the program until the player quits, Stop is called, or the
// start context is canceled. It is meant to run as a supervised sibling of
// the session loop.
func (t *ManualTUI) Run() error {
	defer close(t.done)
	defer t.requestQuit()

	if _, err := t.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return nil
}

// Stop tears the program down and waits for it to exit.
func (t *ManualTUI) Stop() {
	if t.program == nil {
		return
	}

	t.program.Quit()
	<-t.done
}

// NextAction feeds the latest snapshot to the view, waits one tick of wall
// time, and returns the action built from the currently held keys.
func (t *ManualTUI) NextAction(ctx context.Context, snap m.Snapshot) (m.Action, error) {
	if t.program != nil {
		t.program.Send(snapMsg{snap: snap})
	}

	select {
	case <-ctx.Done():
		return m.Action{}, ctx.Err()
	case <-t.quit:
		return m.Action{}, ErrQuit
	case <-time.After(t.tick):
	}

	return m.NewAction(t.held()...), nil
}

func (t *ManualTUI) press(control m.Control) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.heldUntil[control] = time.Now().Add(holdTicks * t.tick)
}

func (t *ManualTUI) held() []m.Control {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()

	var held []m.Control

	for _, control := range m.Controls {
		if deadline, ok := t.heldUntil[control]; ok && deadline.After(now) {
			held = append(held, control)
		}
	}

	return held
}

func (t *ManualTUI) requestQuit() {
	t.quitOnce.Do(func() { close(t.quit) })
}

type snapMsg struct {
	snap m.Snapshot
}

type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Jump   key.Binding
	Crouch key.Binding
	Run    key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:   key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←/a", "left")),
		Right:  key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→/d", "right")),
		Jump:   key.NewBinding(key.WithKeys("up", "w", " "), key.WithHelp("↑/space", "jump")),
		Crouch: key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", "crouch")),
		Run:    key.NewBinding(key.WithKeys("shift+right", "r"), key.WithHelp("r", "run/fire")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 1)
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	deadStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// playModel is the Bubble Tea model behind the manual play view.
type playModel struct {
	keys  keyMap
	snap  m.Snapshot
	press func(m.Control)
	quit  func()
}

func newPlayModel(press func(m.Control), quit func()) playModel {
	return playModel{keys: defaultKeyMap(), press: press, quit: quit}
}

func (p playModel) Init() tea.Cmd {
	return nil
}

func (p playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapMsg:
		p.snap = msg.snap
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			p.quit()
			return p, tea.Quit
		case key.Matches(msg, p.keys.Left):
			p.press(m.ControlLeft)
		case key.Matches(msg, p.keys.Right):
			p.press(m.ControlRight)
		case key.Matches(msg, p.keys.Jump):
			p.press(m.ControlJump)
		case key.Matches(msg, p.keys.Crouch):
			p.press(m.ControlCrouch)
		case key.Matches(msg, p.keys.Run):
			p.press(m.ControlRun)
		}

		return p, nil
	}

	return p, nil
}

func (p playModel) View() string {
	snap := p.snap

	state := stateStyle.Render(string(snap.State))
	if snap.State == m.StateDead {
		state = deadStyle.Render(string(snap.State))
	}

	stats := statStyle.Render(fmt.Sprintf(
		"tick %d  x %.0f/%.0f  y %.0f  score %d  lives %d  timer %d",
		snap.Tick, snap.X, snap.GoalX, snap.Y, snap.Score, snap.Lives, snap.Timer))

	help := helpStyle.Render("←/→ move  ↑ jump  ↓ crouch  r run  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("autoplay · "+snap.Level),
		"",
		"  state: "+state,
		"  "+stats,
		"",
		"  "+help,
	) + "\n"
}
