package triageconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"obiwork/internal/bootstrap/logging"
	domaintriage "obiwork/internal/domain/triage"
	"obiwork/internal/usecase/triage"
)

const maxActionLines = 8

// Queue is the part of the triage service the console drives.
type Queue interface {
	List(ctx context.Context) (triage.ListResult, error)
	UpdateStatus(ctx context.Context, input triage.UpdateInput) (domaintriage.StatusEntry, error)
}

type Options struct {
	Reviewer        string
	StatusFilter    string
	TierFilter      string
	RefreshInterval time.Duration
}

type triageModel struct {
	ctx             context.Context
	queue           Queue
	reviewer        string
	statusFilter    string
	tierFilter      string
	refreshInterval time.Duration

	items         []triage.Item
	source        string
	selectedIndex int
	status        string
	actionLogs    []string
}

type itemsLoadedMsg struct {
	items  []triage.Item
	source string
	err    error
}

type tickMsg struct{}

type actionDoneMsg struct {
	applicationID string
	status        string
	err           error
}

func NewTriageModel(ctx context.Context, queue Queue, options Options) tea.Model {
	reviewer := strings.TrimSpace(options.Reviewer)
	if reviewer == "" {
		reviewer = "console"
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &triageModel{
		ctx:             ctx,
		queue:           queue,
		reviewer:        reviewer,
		statusFilter:    strings.ToLower(strings.TrimSpace(options.StatusFilter)),
		tierFilter:      strings.ToLower(strings.TrimSpace(options.TierFilter)),
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *triageModel) Init() tea.Cmd {
	return tea.Batch(m.loadItemsCmd(), m.tickCmd())
}

func (m *triageModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadItemsCmd(), m.tickCmd())
	case itemsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.applyItems(msg.items, msg.source)
		return m, nil
	case actionDoneMsg:
		m.appendActionLog(msg.applicationID, msg.status, msg.err)
		if msg.err != nil {
			m.status = fmt.Sprintf("set %s failed: %v", msg.status, msg.err)
		} else {
			m.status = fmt.Sprintf("%s -> %s", msg.applicationID, msg.status)
		}
		return m, m.loadItemsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadItemsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "a":
			return m, m.setStatusCmd(domaintriage.StatusApproved)
		case "r":
			return m, m.setStatusCmd(domaintriage.StatusRejected)
		case "v":
			return m, m.setStatusCmd(domaintriage.StatusReview)
		case "p":
			return m, m.setStatusCmd(domaintriage.StatusPending)
		}
	}
	return m, nil
}

func (m *triageModel) applyItems(items []triage.Item, source string) {
	m.items = filterItems(items, m.statusFilter, m.tierFilter)
	m.source = source
	if len(m.items) == 0 {
		m.selectedIndex = 0
		m.status = "queue is empty"
		return
	}
	if m.selectedIndex >= len(m.items) {
		m.selectedIndex = len(m.items) - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	m.status = fmt.Sprintf("refreshed, %d items", len(m.items))
	if source == triage.SourceJournal {
		m.status += " (database unavailable, read from journal)"
	}
}

func (m *triageModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Triage Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"reviewer=%s status=%s tier=%s source=%s refresh=%s",
		m.reviewer,
		firstNonEmpty(m.statusFilter, "all"),
		firstNonEmpty(m.tierFilter, "all"),
		firstNonEmpty(m.source, "-"),
		m.refreshInterval,
	)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.items) == 0 {
		builder.WriteString(dimStyle.Render("- no applications"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.items {
			line := fmt.Sprintf(
				"%s [%s] score=%d tier=%s wallet=%s received=%s",
				shortID(item.ApplicationID),
				item.Status,
				item.Triage.Score,
				item.Triage.Tier,
				item.WalletAddress,
				item.ReceivedAt,
			)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if selected, ok := m.selectedItem(); !ok {
		builder.WriteString(dimStyle.Render("- no selection"))
		builder.WriteString("\n\n")
	} else {
		builder.WriteString(fmt.Sprintf("Application: %s\n", selected.ApplicationID))
		builder.WriteString(fmt.Sprintf("Wallet: %s\n", firstNonEmpty(selected.WalletAddress, "-")))
		builder.WriteString(fmt.Sprintf("Status: %s\n", selected.Status))
		builder.WriteString(fmt.Sprintf("Score: %d (%s)\n", selected.Triage.Score, selected.Triage.Tier))
		builder.WriteString(fmt.Sprintf("Tags: %s\n", firstNonEmpty(strings.Join(selected.Triage.Tags, ","), "-")))
		builder.WriteString(fmt.Sprintf("Gatekeeper: allowed=%t mode=%s\n", selected.Gatekeeper.Allowed, firstNonEmpty(selected.Gatekeeper.Mode, "-")))
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	status := "- " + firstNonEmpty(m.status, "ready")
	if m.source == triage.SourceJournal {
		status = warnStyle.Render(status)
	}
	builder.WriteString(status)
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Actions"))
	builder.WriteString("\n")
	if len(m.actionLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.actionLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  g refresh  a approve  r reject  v review  p pending  q quit"))
	return builder.String()
}

func (m *triageModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *triageModel) loadItemsCmd() tea.Cmd {
	return func() tea.Msg {
		result, err := m.queue.List(m.ctx)
		if err != nil {
			return itemsLoadedMsg{err: err}
		}
		return itemsLoadedMsg{items: result.Items, source: result.Source}
	}
}

func (m *triageModel) setStatusCmd(status domaintriage.Status) tea.Cmd {
	selected, ok := m.selectedItem()
	if !ok {
		m.status = "nothing selected"
		return nil
	}
	if selected.Status == string(status) {
		m.status = fmt.Sprintf("%s is already %s", shortID(selected.ApplicationID), status)
		return nil
	}
	m.status = fmt.Sprintf("setting %s to %s", shortID(selected.ApplicationID), status)
	return func() tea.Msg {
		_, err := m.queue.UpdateStatus(m.ctx, triage.UpdateInput{
			ApplicationID: selected.ApplicationID,
			Status:        string(status),
			Reviewer:      m.reviewer,
		})
		return actionDoneMsg{applicationID: selected.ApplicationID, status: string(status), err: err}
	}
}

func (m *triageModel) selectedItem() (triage.Item, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return triage.Item{}, false
	}
	return m.items[m.selectedIndex], true
}

func (m *triageModel) appendActionLog(applicationID string, status string, opErr error) {
	outcome := "ok"
	if opErr != nil {
		outcome = "error: " + opErr.Error()
	}

	timestamp := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s reviewer=%s application=%s status=%s result=%s", timestamp, m.reviewer, applicationID, status, outcome)
	m.actionLogs = append([]string{line}, m.actionLogs...)
	if len(m.actionLogs) > maxActionLines {
		m.actionLogs = m.actionLogs[:maxActionLines]
	}

	logging.Info(m.ctx, "triage console action",
		slog.String("reviewer", m.reviewer),
		slog.String("application_id", applicationID),
		slog.String("status", status),
		slog.String("result", outcome),
	)
}

func filterItems(items []triage.Item, statusFilter string, tierFilter string) []triage.Item {
	if statusFilter == "" && tierFilter == "" {
		return items
	}
	filtered := make([]triage.Item, 0, len(items))
	for _, item := range items {
		if statusFilter != "" && item.Status != statusFilter {
			continue
		}
		if tierFilter != "" && string(item.Triage.Tier) != tierFilter {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
