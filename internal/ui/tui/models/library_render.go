package models

// library_render.go contains the view rendering for the library model: the
// header, filter status line, the video list itself, and the footer.

import (
	"fmt"
	"strings"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/ui/tui/components"
	"github.com/Karasuhime/yozora/internal/ui/tui/styles"
	"github.com/Karasuhime/yozora/internal/ui/tui/util"
	"github.com/charmbracelet/lipgloss"
)

// View renders the library model
func (m *LibraryModel) View() string {
	if m.loading {
		return styles.CenteredView(
			m.width,
			m.height,
			fmt.Sprintf("%s Loading video library...", m.spinner.View()),
		)
	}

	if m.loadError != nil {
		errorMsg := fmt.Sprintf("Error loading video library: %v\n\nPress 'r' to retry.", m.loadError)
		return styles.CenteredView(
			m.width,
			m.height,
			styles.ContentBox(m.width-20, errorMsg, 1),
		)
	}

	header := styles.Header(m.width, "yozora - Library")
	filterStatus := m.renderFilterStatus()
	content := m.renderVideoList()
	footer := m.renderFooter()

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", header, filterStatus, content, footer)
}

// renderFilterStatus returns a concise string representation of all active filters
func (m *LibraryModel) renderFilterStatus() string {
	unwatched := "[-]"
	if m.filters.unwatchedOnly {
		unwatched = "[U]"
	}

	searchText := "-"
	if m.searchMode {
		searchText = m.searchInput.View()
	} else if m.filters.searchQuery != "" {
		searchText = fmt.Sprintf("\"%s\"", m.filters.searchQuery)
	}

	filterLine := fmt.Sprintf(" Unwatched -> %s | Search: %s", unwatched, searchText)
	filterPrefix := styles.Title.Render("Filters:")
	return filterPrefix + styles.FilterStatus.Render(filterLine)
}

// renderVideoList renders the filtered video list
func (m *LibraryModel) renderVideoList() string {
	videos := m.filteredVideos

	if len(videos) == 0 {
		return styles.CenteredText(m.width, "No videos match the current filters")
	}

	// Calculate available height for the list
	availableHeight := m.height - 10 // Subtract space for header, filters, and margins
	if availableHeight < 1 {
		availableHeight = 1
	}

	visibleCount := min(len(videos), availableHeight-1) // Reserve space for header row

	// Adjust starting index to keep cursor in view
	startIdx := 0
	if m.cursor >= visibleCount {
		startIdx = m.cursor - visibleCount + 1
	}

	endIdx := startIdx + visibleCount
	if endIdx > len(videos) {
		endIdx = len(videos)
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Width(m.width-4).
		Padding(0, 1)

	selectedStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#7D56F4")).
		Width(m.width-4).
		Padding(0, 1)

	normalStyle := lipgloss.NewStyle().
		Width(m.width-4).
		Padding(0, 1)

	var listContent string

	headerText := fmt.Sprintf("%-3s %-50s %-24s %8s %8s", "", "Title", "Channel", "Length", "Resume")
	listContent += headerStyle.Render(headerText) + "\n"

	separatorLine := strings.Repeat("─", m.width-6)
	listContent += separatorLine + "\n"

	for i := startIdx; i < endIdx; i++ {
		itemText := m.formatVideoListItem(videos[i])

		if i == m.cursor {
			listContent += selectedStyle.Render(itemText) + "\n"
		} else {
			listContent += normalStyle.Render(itemText) + "\n"
		}
	}

	// Add pagination indicator if needed
	if len(videos) > visibleCount {
		pagination := fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(videos))
		listContent += styles.CenteredText(m.width-4, pagination)
	}

	return styles.ContentBox(m.width-2, listContent, 1)
}

// formatVideoListItem formats a single video list row
func (m *LibraryModel) formatVideoListItem(video *domain.Video) string {
	watchedIndicator := "[ ]"
	if video.Watched {
		watchedIndicator = "[w]"
	}

	title := util.PadString(util.TruncateString(video.Title, 50), 50)
	channel := util.PadString(util.TruncateString(video.Channel, 24), 24)

	length := util.FormatTimestamp(video.DurationSeconds)

	resume := "-"
	if video.PlaybackSeconds > 0 && !video.Watched {
		resume = util.FormatTimestamp(float64(video.PlaybackSeconds))
	}

	return fmt.Sprintf("%s %s %s %8s %8s", watchedIndicator, title, channel, length, resume)
}

func (m *LibraryModel) renderFooter() string {
	keyBindings := []components.KeyBinding{
		{Key: "enter", Desc: "Play"},
		{Key: "/", Desc: "Search"},
		{Key: "u", Desc: "Unwatched"},
		{Key: "m", Desc: "Watched"},
		{Key: "r", Desc: "Refresh"},
		{Key: "ctrl+h", Desc: "Help"},
	}
	return components.KeyBindingsBar(m.width, keyBindings)
}
