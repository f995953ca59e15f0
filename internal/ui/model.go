package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ladle/internal/api"
)

// Source is the read side of the store the dashboard renders.
type Source interface {
	Recipes() []api.Recipe
	Categories() []api.Category
	IsFavorite(recipeID int64) bool
	CurrentUser() *api.User
}

// Status is one poll result.
type Status struct {
	LastUpdated time.Time
	LastError   error
	Failures    int
	Offline     bool
}

// StatusMsg delivers a poll result to the model.
type StatusMsg Status

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
)

const (
	minWidth  = 40
	minHeight = 8
)

// Model is the bubbletea model for the watch dashboard.
type Model struct {
	source Source
	theme  Theme
	styles Styles
	now    func() time.Time

	table   table.Model
	detail  viewport.Model
	mode    viewMode
	recipes []api.Recipe
	status  Status

	width  int
	height int
}

// NewModel builds a dashboard over source.
func NewModel(source Source) Model {
	theme := NightTheme()
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(minHeight),
	)
	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Bold(true)
	tableStyles.Selected = tableStyles.Selected.
		Foreground(lipgloss.Color(theme.Text)).
		Background(lipgloss.Color(theme.SelectionBg))
	t.SetStyles(tableStyles)

	m := Model{
		source: source,
		theme:  theme,
		styles: theme.Styles(),
		now:    time.Now,
		table:  t,
		detail: viewport.New(80, minHeight),
		width:  80,
		height: 24,
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case StatusMsg:
		m.status = Status(msg)
		m.reload()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if m.mode == modeList {
				if r, ok := m.selected(); ok {
					m.mode = modeDetail
					m.detail.SetContent(m.renderRecipe(r))
					m.detail.GotoTop()
				}
				return m, nil
			}
		case "esc", "backspace":
			if m.mode == modeDetail {
				m.mode = modeList
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.mode == modeDetail {
		m.detail, cmd = m.detail.Update(msg)
	} else {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	body := m.table.View()
	if m.mode == modeDetail {
		body = m.detail.View()
	}
	box := m.styles.Box.Width(max(m.width-2, minWidth-2)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), box, m.renderFooter())
}

func (m *Model) resize(width, height int) {
	m.width = max(width, minWidth)
	m.height = max(height, minHeight)
	inner := m.width - 4
	bodyHeight := m.height - 5 // header, footer, box border

	m.table.SetColumns(columns(inner))
	m.table.SetWidth(inner)
	m.table.SetHeight(bodyHeight)
	m.detail.Width = inner
	m.detail.Height = bodyHeight
}

// reload copies the source's recipes into the table, keeping the cursor on
// the same recipe when it is still listed.
func (m *Model) reload() {
	var selectedID int64
	if r, ok := m.selected(); ok {
		selectedID = r.ID
	}

	m.recipes = m.source.Recipes()
	rows := make([]table.Row, 0, len(m.recipes))
	cursor := 0
	titleWidth := m.table.Columns()[1].Width
	for i, r := range m.recipes {
		title := r.Title
		if m.source.IsFavorite(r.ID) {
			title = "★ " + title
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.ID),
			truncate(title, titleWidth),
			truncate(r.Owner, m.table.Columns()[2].Width),
			formatRating(r.AverageRating),
		})
		if r.ID == selectedID {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m Model) selected() (api.Recipe, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.recipes) {
		return api.Recipe{}, false
	}
	return m.recipes[i], true
}

func columns(width int) []table.Column {
	idWidth, ratingWidth, ownerWidth := 6, 6, 14
	titleWidth := max(width-idWidth-ratingWidth-ownerWidth-8, 10)
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Title", Width: titleWidth},
		{Title: "Owner", Width: ownerWidth},
		{Title: "Rating", Width: ratingWidth},
	}
}

func (m Model) renderHeader() string {
	parts := []string{m.styles.Title.Render("ladle")}
	if u := m.source.CurrentUser(); u != nil {
		parts = append(parts, m.styles.Text.Render(u.Username))
	}
	parts = append(parts, m.styles.MutedText.Render(fmt.Sprintf("%d recipes · %d categories", len(m.recipes), len(m.source.Categories()))))

	switch {
	case m.status.Offline:
		parts = append(parts, m.styles.Danger.Render(fmt.Sprintf("offline (%d failed refreshes)", m.status.Failures)))
	case m.status.LastError != nil:
		parts = append(parts, m.styles.Warning.Render("refresh failed: "+truncate(m.status.LastError.Error(), 40)))
	case !m.status.LastUpdated.IsZero():
		ago := humanizeDuration(m.now().Sub(m.status.LastUpdated))
		parts = append(parts, m.styles.Success.Render("updated "+ago))
	default:
		parts = append(parts, m.styles.MutedText.Render("loading…"))
	}
	return m.styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderFooter() string {
	keys := "↑/↓ move  enter open  q quit"
	if m.mode == modeDetail {
		keys = "↑/↓ scroll  esc back  q quit"
	}
	return m.styles.MutedText.Render(keys)
}

func (m Model) renderRecipe(r api.Recipe) string {
	var b strings.Builder
	title := fmt.Sprintf("#%d %s", r.ID, r.Title)
	if m.source.IsFavorite(r.ID) {
		title += " ★"
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")
	if r.Owner != "" {
		b.WriteString(m.styles.MutedText.Render("by " + r.Owner))
		b.WriteString("\n")
	}
	if r.Description != "" {
		b.WriteString("\n" + r.Description + "\n")
	}
	for _, sec := range []struct{ heading, body string }{
		{"Ingredients", r.Ingredients},
		{"Steps", r.Steps},
	} {
		body := strings.TrimSpace(sec.body)
		if body == "" {
			continue
		}
		b.WriteString("\n" + m.styles.Accent.Render(sec.heading) + "\n")
		for _, line := range strings.Split(body, "\n") {
			b.WriteString("  " + strings.TrimSpace(line) + "\n")
		}
	}
	if r.AverageRating > 0 {
		b.WriteString("\nRating " + formatRating(r.AverageRating) + "\n")
	}
	return b.String()
}
