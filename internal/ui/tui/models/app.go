package models

import (
	"github.com/Karasuhime/yozora/internal/config"
	"github.com/Karasuhime/yozora/internal/log"
	"github.com/Karasuhime/yozora/internal/player"
	"github.com/Karasuhime/yozora/internal/repository/catalog"
	"github.com/Karasuhime/yozora/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	libraryModel  *LibraryModel
	playbackModel *PlaybackModel
	helpModel     *HelpModel

	// Services used for fetching and updating state
	videoService *service.VideoService

	// connectError is set when the archive client could not be built at startup
	connectError string
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(cfg *config.Config) AppModel {
	m := AppModel{
		config:      cfg,
		activeView:  ViewLibrary,
		activeModal: ModalNone,
	}

	client, err := catalog.NewClient(cfg.Server.URL, cfg.Server.Token)
	if err != nil {
		log.Error("Failed to connect to archive", "url", cfg.Server.URL, "error", err)
		m.connectError = err.Error()
		return m
	}
	info := client.GetArchiveInfo()
	log.Info("Connected to archive", "name", info.Name, "videos", info.VideoCount)

	videoRepo := catalog.NewVideoRepository(client)
	m.videoService = service.NewVideoService(videoRepo)

	m.libraryModel = NewLibraryModel(cfg, m.videoService)
	m.playbackModel = NewPlaybackModel(cfg, m.videoService, func() player.Engine {
		return player.NewMPVEngine(cfg)
	}, catalog.NewSubtitleProber())

	return m
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising yozora TUI")

	if m.connectError != "" {
		return nil
	}
	return m.libraryModel.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			log.Info("Quit command received.  Shutting down...")
			if m.playbackModel != nil {
				// Final progress flush happens inside Unbind
				m.playbackModel.manager.Unbind()
			}
			return m, tea.Quit
		case "ctrl+h":
			log.Debug("Help requested", "active_view", m.activeView)
			// Disable/toggle modal if one already active
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.helpModel = NewHelpModel(m.activeView)
				m.helpModel.Resize(m.width, m.height)
				m.activeModal = ModalHelp
			}
			return m, nil

		// Handle closing modal when esc is pressed if any is active
		case "esc":
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		if m.libraryModel != nil {
			m.libraryModel.Resize(msg.Width, msg.Height)
		}
		if m.playbackModel != nil {
			m.playbackModel.Resize(msg.Width, msg.Height)
		}
		if m.helpModel != nil {
			m.helpModel.Resize(msg.Width, msg.Height)
		}

	case PlayRequestMsg:
		log.Info("Play requested", "id", msg.Video.ID, "title", msg.Video.Title)
		m.activeModal = ModalNone
		m.activeView = ViewPlayback
		return m, m.playbackModel.Play(msg.Video)

	case PlaybackStoppedMsg:
		log.Info("Returning to library view")
		m.activeView = ViewLibrary
		// Refresh the list so resume positions and watched markers are current
		return m.updateLibraryView(VideoStateMsg{Success: true})

	case VideoStateMsg:
		// Watched toggles and persisted progress both land here; the library
		// list re-filters off the updated service cache
		return m.updateLibraryView(msg)

	case statusTickMsg, PlaybackBoundMsg, PlaybackBindErrorMsg,
		PlaybackWatchedMsg, PlaybackEndedMsg, PlaybackErrorMsg:
		// Always routed to playback: session events and ticks can land
		// after the view switched back to the library, and the playback
		// model re-arms its listeners off them
		return m.updatePlaybackView(msg)
	}

	// Prioritise delegating messages to a modal if one is active
	if m.activeModal == ModalHelp {
		return m.updateHelpModal(msg)
	}

	// Delegate message processing to the active view
	switch m.activeView {
	case ViewLibrary:
		return m.updateLibraryView(msg)
	case ViewPlayback:
		return m.updatePlaybackView(msg)
	}

	return m, nil
}

func (m AppModel) View() string {
	if m.connectError != "" {
		return "Unable to reach the archive:\n\n  " + m.connectError +
			"\n\nCheck the server url and token in your config file.\nPress ctrl+c to quit."
	}

	// If there is an active modal it takes precedence
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}

	switch m.activeView {
	case ViewLibrary:
		return m.libraryModel.View()
	case ViewPlayback:
		return m.playbackModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}

// updateLibraryView delegates message processing to the library model
func (m AppModel) updateLibraryView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.libraryModel == nil {
		return m, nil
	}
	libraryModel, cmd := m.libraryModel.Update(msg)
	m.libraryModel = libraryModel.(*LibraryModel)

	return m, cmd
}

// updatePlaybackView delegates message processing to the playback model
func (m AppModel) updatePlaybackView(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.playbackModel == nil {
		return m, nil
	}
	playbackModel, cmd := m.playbackModel.Update(msg)
	m.playbackModel = playbackModel.(*PlaybackModel)

	return m, cmd
}

func (m AppModel) updateHelpModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	helpModel, cmd := m.helpModel.Update(msg)
	m.helpModel = helpModel.(*HelpModel)

	return m, cmd
}
