package models

// playback.go encapsulates the playback view: binding a session for a
// selected video, reflecting session state on screen, and forwarding
// transport keys (pause, seek, speed) to the live session.

import (
	"context"
	"fmt"
	"time"

	"github.com/Karasuhime/yozora/internal/config"
	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/log"
	"github.com/Karasuhime/yozora/internal/player"
	"github.com/Karasuhime/yozora/internal/service"
	"github.com/Karasuhime/yozora/internal/ui/tui/components"
	kb "github.com/Karasuhime/yozora/internal/ui/tui/keybindings"
	"github.com/Karasuhime/yozora/internal/ui/tui/styles"
	"github.com/Karasuhime/yozora/internal/ui/tui/util"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	seekStepSeconds = 5.0
	speedStep       = 0.25
	minSpeed        = 0.25
	maxSpeed        = 3.0
	statusInterval  = 500 * time.Millisecond
)

// SubtitleFinder resolves an external subtitle URL for a source, best effort
type SubtitleFinder interface {
	Find(ctx context.Context, sourceURL string) (string, bool)
}

// PlaybackModel handles the playback view and owns the session manager
type PlaybackModel struct {
	config        *config.Config
	videoService  *service.VideoService
	manager       *player.Manager
	engineFactory func() player.Engine
	subtitles     SubtitleFinder

	width, height int
	video         *domain.Video
	engine        player.Engine
	status        player.SessionStatus
	speed         float64
	errMsg        string
	listening     bool
	ticking       bool

	// sessionEvents bridges session callbacks (which fire on the session's
	// goroutine) into the bubbletea message loop
	sessionEvents chan tea.Msg
}

// NewPlaybackModel creates a new playback model
func NewPlaybackModel(cfg *config.Config, videoService *service.VideoService, engineFactory func() player.Engine, subtitles SubtitleFinder) *PlaybackModel {
	speed := cfg.UI.PlaybackSpeed
	if speed <= 0 {
		speed = 1.0
	}
	return &PlaybackModel{
		config:        cfg,
		videoService:  videoService,
		manager:       player.NewManager(),
		engineFactory: engineFactory,
		subtitles:     subtitles,
		speed:         speed,
		sessionEvents: make(chan tea.Msg, 16),
	}
}

func (m *PlaybackModel) ViewType() View {
	return ViewPlayback
}

func (m *PlaybackModel) Init() tea.Cmd {
	return nil
}

// Resize updates the model with new dimensions
func (m *PlaybackModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Play binds a playback session for the video.  The engine is created on
// first use and kept across videos so switching is instant.
func (m *PlaybackModel) Play(video *domain.Video) tea.Cmd {
	if m.engine == nil {
		m.engine = m.engineFactory()
	}
	m.video = video
	m.errMsg = ""
	m.status = player.SessionStatus{}

	engine := m.engine
	return func() tea.Msg {
		cbs := player.Callbacks{
			OnWatched: func() {
				m.sessionEvents <- PlaybackWatchedMsg{VideoID: video.ID}
			},
			OnEnded: func() {
				m.sessionEvents <- PlaybackEndedMsg{VideoID: video.ID}
			},
			OnError: func(code int, message string) {
				m.sessionEvents <- PlaybackErrorMsg{VideoID: video.ID, Code: code, Message: message}
			},
		}
		opts := player.Options{
			PersistProgress:        !m.config.Player.DisableProgressSync,
			KeepEngineAcrossVideos: true,
			PlaybackSpeed:          m.speed,
			SkipCategories:         m.config.Player.SkipCategories,
			Device:                 player.ProbeDevice(),
			Persist:                m.videoService.PersistState,
			FindSubtitle:           m.subtitles.Find,
			OnWatched:              cbs.OnWatched,
			OnEnded:                cbs.OnEnded,
			OnError:                cbs.OnError,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		session, err := m.manager.Bind(ctx, video, engine, opts)
		if err != nil {
			log.Error("Failed to bind playback session", "id", video.ID, "error", err)
			return PlaybackBindErrorMsg{Video: video, Error: err}
		}
		// On a rebind the session survives with its previous callbacks, which
		// still capture the old video id.  Swap in fresh ones either way.
		session.SetCallbacks(cbs)

		if m.config.UI.TheaterMode {
			session.SetFullscreen(true)
		}

		return PlaybackBoundMsg{Video: video}
	}
}

// Stop tears the session down
func (m *PlaybackModel) Stop() tea.Cmd {
	return func() tea.Msg {
		m.manager.Unbind()
		return PlaybackStoppedMsg{}
	}
}

// Update handles messages and updates the model
func (m *PlaybackModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleKeyPress(msg); cmd != nil {
			return m, cmd
		}

	case PlaybackBoundMsg:
		log.Info("Playback session bound", "id", msg.Video.ID, "title", msg.Video.Title)
		// Both loops re-arm themselves, so they only need starting once; a
		// rebind must not add a second reader or a second ticker.
		var cmds []tea.Cmd
		if !m.ticking {
			m.ticking = true
			cmds = append(cmds, m.statusTick())
		}
		if !m.listening {
			m.listening = true
			cmds = append(cmds, m.listenForSessionEvents())
		}
		return m, tea.Batch(cmds...)

	case PlaybackBindErrorMsg:
		m.errMsg = fmt.Sprintf("Unable to play %q: %v", msg.Video.Title, msg.Error)
		return m, nil

	case PlaybackWatchedMsg:
		log.Info("Video reached watched threshold", "id", msg.VideoID)
		return m, m.listenForSessionEvents()

	case PlaybackEndedMsg:
		log.Info("Playback finished", "id", msg.VideoID)
		return m, tea.Batch(m.listenForSessionEvents(), m.Stop())

	case PlaybackErrorMsg:
		m.errMsg = msg.Message
		log.Error("Playback failed", "id", msg.VideoID, "code", msg.Code, "message", msg.Message)
		return m, m.listenForSessionEvents()

	case statusTickMsg:
		session := m.manager.Session()
		if session == nil {
			m.ticking = false
			return m, nil
		}
		m.status = session.Status()
		return m, m.statusTick()
	}

	return m, nil
}

func (m *PlaybackModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	session := m.manager.Session()

	switch kb.GetActionByKey(msg, kb.ContextPlayback) {
	case kb.ActionTogglePause:
		if session != nil {
			session.UserActive()
			session.TogglePause()
		}
		return Handled("playback:toggle_pause")
	case kb.ActionSeekBack:
		if session != nil {
			session.UserActive()
			session.SeekBy(-seekStepSeconds)
		}
		return Handled("playback:seek_back")
	case kb.ActionSeekForward:
		if session != nil {
			session.UserActive()
			session.SeekBy(seekStepSeconds)
		}
		return Handled("playback:seek_forward")
	case kb.ActionSpeedUp:
		return m.adjustSpeed(speedStep)
	case kb.ActionSpeedDown:
		return m.adjustSpeed(-speedStep)
	case kb.ActionToggleTheater:
		return m.toggleTheaterMode(session)
	case kb.ActionToggleWatched:
		if m.video == nil {
			return Handled("playback:toggle_watched:no_video")
		}
		video := m.video
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.videoService.ToggleWatched(ctx, video.ID); err != nil {
				return VideoStateMsg{Success: false, VideoID: video.ID, Error: err}
			}
			return VideoStateMsg{Success: true, VideoID: video.ID}
		}
	case kb.ActionStopPlayback:
		return m.Stop()
	}

	// esc backs out to the library, same as an explicit stop
	if kb.GetActionByKey(msg, kb.ContextGlobal) == kb.ActionBack {
		return m.Stop()
	}

	return nil
}

// adjustSpeed changes playback speed in steps and persists the preference so
// the next session starts at the same speed
func (m *PlaybackModel) adjustSpeed(delta float64) tea.Cmd {
	speed := m.speed + delta
	if speed < minSpeed {
		speed = minSpeed
	}
	if speed > maxSpeed {
		speed = maxSpeed
	}
	if speed == m.speed {
		return Handled("playback:speed_unchanged")
	}
	m.speed = speed

	if session := m.manager.Session(); session != nil {
		session.SetSpeed(speed)
	}

	m.config.UI.PlaybackSpeed = speed
	if err := config.UpdateConfig(func(conf *config.Config) {
		conf.UI.PlaybackSpeed = speed
	}); err != nil {
		log.Warn("Failed to persist playback speed", "error", err)
	}

	log.Info("Playback speed changed", "speed", speed)
	return Handled("playback:speed_changed")
}

// toggleTheaterMode flips the persisted preference and pushes the change to
// the live session
func (m *PlaybackModel) toggleTheaterMode(session *player.Session) tea.Cmd {
	theater := !m.config.UI.TheaterMode
	m.config.UI.TheaterMode = theater
	if err := config.UpdateConfig(func(conf *config.Config) {
		conf.UI.TheaterMode = theater
	}); err != nil {
		log.Warn("Failed to persist theater mode", "error", err)
	}

	if session != nil {
		session.SetFullscreen(theater)
	}

	log.Info("Theater mode toggled", "enabled", theater)
	return Handled("playback:theater_toggled")
}

// listenForSessionEvents waits for the next session callback.  Re-armed
// after every received event.
func (m *PlaybackModel) listenForSessionEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.sessionEvents
	}
}

func (m *PlaybackModel) statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

// View renders the playback view
func (m *PlaybackModel) View() string {
	if m.video == nil {
		return styles.CenteredView(m.width, m.height, "Nothing playing")
	}

	header := styles.Header(m.width, "yozora - Now Playing")

	var content string
	content += styles.Title.Render(util.TruncateString(m.video.Title, m.width-8)) + "\n"
	if m.video.Channel != "" {
		content += styles.Info.Render(m.video.Channel) + "\n"
	}
	content += "\n"

	if m.errMsg != "" {
		content += styles.ErrorText.Render(m.errMsg) + "\n\n"
	}

	content += m.renderProgress() + "\n"
	content += m.renderIndicators() + "\n"

	body := styles.ContentBox(m.width-2, content, 1)
	footer := m.renderFooter()

	return fmt.Sprintf("%s\n\n%s\n%s", header, body, footer)
}

// renderProgress draws the position readout and a simple progress bar
func (m *PlaybackModel) renderProgress() string {
	position := util.FormatTimestamp(m.status.Position)
	duration := util.FormatTimestamp(m.status.Duration)

	barWidth := m.width - 24
	if barWidth < 10 {
		barWidth = 10
	}

	filled := 0
	if m.status.Duration > 0 {
		filled = int(float64(barWidth) * m.status.Position / m.status.Duration)
		if filled > barWidth {
			filled = barWidth
		}
	}

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	return fmt.Sprintf("%s %s %s", position, bar, duration)
}

func (m *PlaybackModel) renderIndicators() string {
	state := "playing"
	if m.status.Buffering {
		state = "buffering"
	} else if !m.status.Playing {
		state = "paused"
	}

	watched := ""
	if m.status.Watched {
		watched = " " + styles.Watched.Render("[watched]")
	}

	theater := ""
	if m.config.UI.TheaterMode {
		theater = " [theater]"
	}

	return styles.Info.Render(fmt.Sprintf("%s • %.2fx%s%s", state, m.speed, watched, theater))
}

func (m *PlaybackModel) renderFooter() string {
	keyBindings := []components.KeyBinding{
		{Key: "space", Desc: "Pause"},
		{Key: "←/→", Desc: "Seek"},
		{Key: "+/-", Desc: "Speed"},
		{Key: "t", Desc: "Theater"},
		{Key: "m", Desc: "Watched"},
		{Key: "s", Desc: "Stop"},
	}
	return components.KeyBindingsBar(m.width, keyBindings)
}
