package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/rrp/internal/broadcast"
	"github.com/genricoloni/rrp/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const frameInterval = 50 * time.Millisecond

// Links are the static outbound pages bound to keys 1, 2 and 3
type Links struct {
	Schedule string
	Chart    string
	Main     string
}

// Options configure the display
type Options struct {
	RPM          float64
	Color        string
	LoadingTitle string
	AppName      string
	Links        Links
}

// Title update from the hub, tagged with the subscription that delivered it
type titleMsg struct {
	sub *broadcast.Subscription
	np  domain.NowPlaying
}

// Animation frame; gen ties it to one play session
type tickMsg struct {
	gen int
}

// Result of a play/pause command sent to the controller
type commandResultMsg struct {
	cmd      domain.Command
	snapshot domain.Snapshot
	err      error
}

type model struct {
	ctx     context.Context
	logger  *zap.Logger
	hub     *broadcast.Hub
	control domain.PlaybackControl
	opener  domain.LinkOpener
	clock   clockwork.Clock
	opts    Options
	period  time.Duration

	sub           *broadcast.Subscription
	title         string
	playing       bool
	rotationStart time.Time
	angle         float64
	tickGen       int
	width         int
	height        int
}

func newModel(ctx context.Context, logger *zap.Logger, hub *broadcast.Hub, control domain.PlaybackControl,
	opener domain.LinkOpener, clock clockwork.Clock, opts Options) model {
	m := model{
		ctx:     ctx,
		logger:  logger,
		hub:     hub,
		control: control,
		opener:  opener,
		clock:   clock,
		opts:    opts,
		period:  PeriodForRPM(opts.RPM),
		title:   opts.LoadingTitle,
	}
	m.sub = hub.Subscribe("display")
	return m
}

// waitForTitle blocks on the subscription; a closed subscription ends the chain
func waitForTitle(sub *broadcast.Subscription) tea.Cmd {
	return func() tea.Msg {
		np, ok := <-sub.C()
		if !ok {
			return nil
		}
		return titleMsg{sub: sub, np: np}
	}
}

func tick(gen int) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m model) Init() tea.Cmd {
	return waitForTitle(m.sub)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.hide()
			return m, tea.Quit
		case "p", " ", "enter":
			return m.toggle()
		case "1":
			return m, m.openLink(m.opts.Links.Schedule)
		case "2":
			return m, m.openLink(m.opts.Links.Chart)
		case "3":
			return m, m.openLink(m.opts.Links.Main)
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft && m.onControl(msg.Y) {
			return m.toggle()
		}

	case tea.FocusMsg:
		if m.sub == nil {
			m.sub = m.hub.Subscribe("display")
			return m, waitForTitle(m.sub)
		}

	case tea.BlurMsg:
		m.hide()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case titleMsg:
		// Values from a subscription we already dropped are stale
		if msg.sub != m.sub {
			return m, nil
		}
		m.title = msg.np.Title
		return m, waitForTitle(m.sub)

	case tickMsg:
		if !m.playing || msg.gen != m.tickGen {
			return m, nil
		}
		m.angle = RotationAngle(m.clock.Since(m.rotationStart), m.period)
		return m, tick(m.tickGen)

	case commandResultMsg:
		if msg.err != nil {
			m.logger.Warn("Playback command failed", zap.String("command", string(msg.cmd)), zap.Error(msg.err))
			// Fall back to what the controller actually did
			if playing := msg.snapshot.State == domain.StatePlaying; playing != m.playing {
				m.setPlaying(playing)
			}
		}
	}

	return m, nil
}

// hide drops the subscription while the display is not visible
func (m *model) hide() {
	if m.sub != nil {
		m.sub.Unsubscribe()
		m.sub = nil
	}
}

func (m model) toggle() (tea.Model, tea.Cmd) {
	cmd := domain.CommandPlay
	if m.playing {
		cmd = domain.CommandPause
	}

	m.setPlaying(!m.playing)

	send := m.sendCommand(cmd)
	if m.playing {
		return m, tea.Batch(send, tick(m.tickGen))
	}
	return m, send
}

// setPlaying starts the rotation from zero or resets it
func (m *model) setPlaying(playing bool) {
	m.playing = playing
	m.tickGen++
	m.angle = 0
	if playing {
		m.rotationStart = m.clock.Now()
	}
}

func (m model) sendCommand(cmd domain.Command) tea.Cmd {
	control, ctx := m.control, m.ctx
	return func() tea.Msg {
		var (
			snap domain.Snapshot
			err  error
		)
		if cmd == domain.CommandPlay {
			snap, err = control.Play(ctx)
		} else {
			snap, err = control.Pause(ctx)
		}
		return commandResultMsg{cmd: cmd, snapshot: snap, err: err}
	}
}

func (m model) openLink(url string) tea.Cmd {
	opener, logger := m.opener, m.logger
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			logger.Warn("Failed to open link", zap.String("url", url), zap.Error(err))
		}
		return nil
	}
}

// Run shows the display until the user quits or ctx is cancelled
func Run(ctx context.Context, logger *zap.Logger, hub *broadcast.Hub, control domain.PlaybackControl,
	opener domain.LinkOpener, clock clockwork.Clock, opts Options) error {
	m := newModel(ctx, logger, hub, control, opener, clock, opts)
	initial := m.sub
	defer initial.Unsubscribe()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)

	final, err := p.Run()
	if fm, ok := final.(model); ok && fm.sub != nil {
		fm.sub.Unsubscribe()
	}

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
