package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/glx/internal/formatter"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// logSize is the number of finished-project lines kept on screen during a run.
const logSize = 8

// RunFunc performs the batch, reporting through prog. It must return once ctx is cancelled.
type RunFunc func(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	run          RunFunc
	state        *models.Progress
	width        int
	height       int
	spinner      spinner.Model
	projectList  list.Model
	progressChan chan tasks.ProgressUpdate
	outcomeChan  chan runOutcome
	done         chan struct{}
	final        runOutcome
	progress     tasks.ProgressUpdate
	log          []tasks.ProgressUpdate
	result       *tasks.RunResult
	err          error
	cancelled    bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that runs run against state once started.
//
// state is only read after run returns.
func NewModel(ctx context.Context, state *models.Progress, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    RunView,
		run:     run,
		state:   state,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the engine outcome once the run has finished.
func (m *Model) Result() (*tasks.RunResult, error) {
	return m.result, m.err
}

// Shutdown cancels the run if it is still going and waits for it to return.
//
// Safe to call after the program has exited for any reason; the store passed
// to [NewModel] is not touched once Shutdown returns.
func (m *Model) Shutdown() (*tasks.RunResult, error) {
	m.cancel()
	if m.done == nil {
		return nil, nil
	}
	<-m.done
	return m.final.result, m.final.err
}

// Cancelled reports whether the user interrupted the run.
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// Init starts the batch and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startRun(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.projectList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != RunView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.applyProgress(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()

		case MsgRunComplete:
			outcome := msg.data.(runOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.progressChan = nil
			m.cancel()
			if m.cancelled {
				return m, tea.Quit
			}
			m.showResult()
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && !m.cancelled {
		m.cancelled = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.projectList, cmd = m.projectList.Update(msg)
	return m, cmd
}

func (m *Model) applyProgress(update tasks.ProgressUpdate) {
	m.progress = update
	switch update.Phase {
	case tasks.Completed, tasks.TimedOut:
		m.log = append(m.log, update)
		if len(m.log) > logSize {
			m.log = m.log[len(m.log)-logSize:]
		}
	}
}

func (m *Model) showResult() {
	m.view = ResultView
	m.projectList = list.New(projectItems(m.state), list.NewDefaultDelegate(), 0, 0)
	m.projectList.Title = "Projects"
	m.projectList.SetShowHelp(false)
	m.projectList.SetSize(max(m.width-4, 20), max(m.height-10, 10))
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.outcomeChan = make(chan runOutcome, 1)
	m.done = make(chan struct{})

	progress, outcome, done := m.progressChan, m.outcomeChan, m.done
	go func() {
		defer close(done)
		result, err := m.run(m.ctx, progress)
		m.final = runOutcome{result: result, err: err}
		close(progress)
		outcome <- m.final
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, outcome := m.progressChan, m.outcomeChan
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			o := <-outcome
			return runCompleteMsg(o.result, o.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Exporting GitLab projects")

	status := fmt.Sprintf("%s %s", m.spinner.View(), m.progress.Message)
	if m.progress.Total > 0 {
		status = fmt.Sprintf("%s\n%s", status, styles.help.Render(fmt.Sprintf("%s %d/%d", m.progress.Phase, m.progress.Step, m.progress.Total)))
	}
	if m.cancelled {
		status = styles.warn.Render("Cancelling, saving progress...")
	}

	var lines []string
	for _, u := range m.log {
		if u.Phase == tasks.TimedOut {
			lines = append(lines, styles.warn.Render(u.Message))
		} else {
			lines = append(lines, styles.ok.Render(u.Message))
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "cancel")),
	})

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, status, strings.Join(lines, "\n"), helpView)
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case m.err != nil && errors.Is(m.err, context.Canceled):
		header = styles.warn.Render("Run cancelled. Progress so far will be saved.")
	case m.err != nil:
		header = styles.err.Render(fmt.Sprintf("Run failed: %v", m.err))
	default:
		header = styles.ok.Render("✓ Export run complete")
	}

	var info string
	if m.result != nil {
		info = fmt.Sprintf("\nDownloaded: %d  Already done: %d  Filtered: %d  Timed out: %d",
			len(m.result.Downloaded), m.result.AlreadyDone, m.result.Filtered, len(m.result.TimedOut))
	}
	if m.state != nil {
		info += "\n" + formatter.SummaryLine(m.state.Summary())
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, info, m.projectList.View(), helpView)
}
