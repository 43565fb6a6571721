package models

import (
	"context"
	"time"

	"github.com/Karasuhime/yozora/internal/config"
	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/log"
	"github.com/Karasuhime/yozora/internal/service"
	kb "github.com/Karasuhime/yozora/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// VideoFilterSet represents the filters applied to the library list
type VideoFilterSet struct {
	unwatchedOnly bool
	searchQuery   string
}

// LibraryModel handles displaying and interacting with the video library
type LibraryModel struct {
	config         *config.Config
	videoService   *service.VideoService
	width, height  int
	loading        bool
	loadError      error
	spinner        spinner.Model
	searchMode     bool
	searchInput    textinput.Model
	filters        VideoFilterSet
	cursor         int
	allVideos      []*domain.Video
	filteredVideos []*domain.Video
}

// NewLibraryModel creates a new library model
func NewLibraryModel(cfg *config.Config, videoService *service.VideoService) *LibraryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	input := textinput.New()
	input.Placeholder = "Search title or channel..."
	input.CharLimit = 100

	return &LibraryModel{
		config:       cfg,
		videoService: videoService,
		loading:      true,
		spinner:      s,
		searchInput:  input,
	}
}

func (m *LibraryModel) ViewType() View {
	return ViewLibrary
}

// Init initializes the model
func (m *LibraryModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadLibrary(m.videoService),
	)
}

// loadLibrary loads the video library from the service
func loadLibrary(videoService *service.VideoService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := videoService.LoadLibrary(ctx); err != nil {
			log.Error("Failed to load video library", "error", err)
			return LibraryMsg{Success: false, Error: err}
		}

		log.Info("Video library loaded successfully")
		return LibraryMsg{Success: true}
	}
}

// Resize updates the model with new dimensions
func (m *LibraryModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages and updates the model
func (m *LibraryModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If in search mode, handle input differently
		if cmd := m.handleSearchModeKeyMsg(msg); cmd != nil {
			return m, cmd
		}

		if cmd := m.handleKeyPress(msg); cmd != nil {
			return m, cmd
		}

	case spinner.TickMsg:
		if m.loading {
			var spinnerCmd tea.Cmd
			m.spinner, spinnerCmd = m.spinner.Update(msg)
			return m, spinnerCmd
		}
		return m, nil

	case LibraryMsg:
		if msg.Success {
			log.Debug("Library loaded")
			m.loading = false
			m.allVideos = m.videoService.GetLibrary()
			m.applyFilters()
		} else {
			log.Debug("Library load error", "error", msg.Error)
			m.loading = false
			m.loadError = msg.Error
		}

	case VideoStateMsg:
		if msg.Success {
			log.Info("Video state updated", "id", msg.VideoID)
			m.applyFilters()
		} else {
			log.Error("Video state update failed", "id", msg.VideoID, "error", msg.Error)
		}
		return m, nil
	}

	return m, nil
}

func (m *LibraryModel) handleSearchModeKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if !m.searchMode {
		return nil
	}
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionBack:
		// Cancels search, clearing the filter
		m.searchMode = false
		m.filters.searchQuery = ""
		m.searchInput.SetValue("")
		m.applyFilters()
		return Handled("search:exit")
	case kb.ActionSearchComplete:
		m.searchMode = false
		m.filters.searchQuery = m.searchInput.Value()
		m.applyFilters()
		return Handled("search:apply")
	}

	// Let the text input model handle other keys
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Apply filters as we type
	m.filters.searchQuery = m.searchInput.Value()
	m.applyFilters()

	return cmd
}

// handleKeyPress processes keyboard inputs in normal mode
func (m *LibraryModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextLibrary) {
	case kb.ActionMoveUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return Handled("cursor_move:up")
	case kb.ActionMoveDown:
		if len(m.filteredVideos) > 0 && m.cursor < len(m.filteredVideos)-1 {
			m.cursor++
		}
		return Handled("cursor_move:down")
	case kb.ActionMoveTop:
		m.cursor = 0
		return Handled("cursor_move:top")
	case kb.ActionMoveBottom:
		if len(m.filteredVideos) > 0 {
			m.cursor = len(m.filteredVideos) - 1
		}
		return Handled("cursor_move:bottom")
	case kb.ActionPageUp:
		m.cursor -= m.pageSize()
		if m.cursor < 0 {
			m.cursor = 0
		}
		return Handled("cursor_move:pgup")
	case kb.ActionPageDown:
		if len(m.filteredVideos) > 0 {
			m.cursor += m.pageSize()
			if m.cursor > len(m.filteredVideos)-1 {
				m.cursor = len(m.filteredVideos) - 1
			}
		}
		return Handled("cursor_move:pgdown")
	case kb.ActionToggleFilterWatched:
		m.filters.unwatchedOnly = !m.filters.unwatchedOnly
		m.applyFilters()
		m.cursor = 0
		return Handled("filter:toggle_unwatched")
	case kb.ActionEnableSearch:
		m.searchMode = true
		m.searchInput.Focus()
		return Handled("search:enable")
	case kb.ActionRefreshLibrary:
		m.loading = true
		m.loadError = nil
		return tea.Batch(
			m.spinner.Tick,
			loadLibrary(m.videoService),
		)
	case kb.ActionPlayVideo:
		video := m.getSelectedVideo()
		if video == nil {
			return Handled("play_video:none_selected")
		}
		log.Info("Video selected to play", "id", video.ID, "title", video.Title)
		return func() tea.Msg {
			return PlayRequestMsg{Video: video}
		}
	case kb.ActionToggleWatched:
		return m.handleToggleWatched()
	}

	return nil
}

// handleToggleWatched flips the watched flag on the selected video
func (m *LibraryModel) handleToggleWatched() tea.Cmd {
	video := m.getSelectedVideo()
	if video == nil {
		return Handled("toggle_watched:none_selected")
	}

	return func() tea.Msg {
		log.Info("Toggling watched state", "id", video.ID, "title", video.Title, "watched", video.Watched)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.videoService.ToggleWatched(ctx, video.ID); err != nil {
			return VideoStateMsg{Success: false, VideoID: video.ID, Error: err}
		}

		return VideoStateMsg{Success: true, VideoID: video.ID}
	}
}

// applyFilters applies the current filters to the video list
func (m *LibraryModel) applyFilters() {
	m.filteredVideos = nil

	for _, video := range m.allVideos {
		if m.filters.unwatchedOnly && video.Watched {
			continue
		}

		if m.filters.searchQuery != "" {
			query := m.filters.searchQuery
			if !fuzzy.MatchFold(query, video.Title) && !fuzzy.MatchFold(query, video.Channel) {
				continue
			}
		}

		m.filteredVideos = append(m.filteredVideos, video)
	}

	// Reset cursor if it's out of bounds
	if len(m.filteredVideos) == 0 {
		m.cursor = 0
	} else if m.cursor >= len(m.filteredVideos) {
		m.cursor = len(m.filteredVideos) - 1
	}
}

// getSelectedVideo returns the currently selected video or nil if none
func (m *LibraryModel) getSelectedVideo() *domain.Video {
	if len(m.filteredVideos) == 0 || m.cursor >= len(m.filteredVideos) {
		return nil
	}
	return m.filteredVideos[m.cursor]
}

func (m *LibraryModel) pageSize() int {
	size := m.height - 12
	if size < 1 {
		size = 1
	}
	return size
}
