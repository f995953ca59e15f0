package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ladle/internal/api"
)

type fakeSource struct {
	recipes   []api.Recipe
	favorites map[int64]bool
	user      *api.User
}

func (f *fakeSource) Recipes() []api.Recipe { return f.recipes }
func (f *fakeSource) Categories() []api.Category { return []api.Category{{ID: 1, Name: "Soup"}} }
func (f *fakeSource) IsFavorite(id int64) bool { return f.favorites[id] }
func (f *fakeSource) CurrentUser() *api.User { return f.user }

func newTestModel(src *fakeSource) Model {
	m := NewModel(src)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func TestModel_ListsRecipesWithFavoriteMarker(t *testing.T) {
	src := &fakeSource{
		recipes:   []api.Recipe{{ID: 7, Title: "Tomato soup", Owner: "ana", AverageRating: 4.5}, {ID: 8, Title: "Rye bread"}},
		favorites: map[int64]bool{7: true},
		user:      &api.User{Username: "ana"},
	}
	view := newTestModel(src).View()

	for _, want := range []string{"★ Tomato soup", "Rye bread", "4.5", "ana", "2 recipes", "1 categories", "loading"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_StatusMsgReloadsAndKeepsSelection(t *testing.T) {
	src := &fakeSource{recipes: []api.Recipe{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}}
	m := newTestModel(src)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if r, _ := m.selected(); r.ID != 2 {
		t.Fatalf("selected = %d, want 2", r.ID)
	}

	src.recipes = []api.Recipe{{ID: 3, Title: "C"}, {ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	m.now = func() time.Time { return time.Unix(100, 0) }
	m, _ = update(t, m, StatusMsg{LastUpdated: time.Unix(88, 0)})

	if r, _ := m.selected(); r.ID != 2 {
		t.Fatalf("selected after reload = %d, want 2", r.ID)
	}
	if view := m.View(); !strings.Contains(view, "updated 12s") || !strings.Contains(view, "C") {
		t.Fatalf("view missing refresh state:\n%s", view)
	}
}

func TestModel_OfflineHeader(t *testing.T) {
	m := newTestModel(&fakeSource{})
	m, _ = update(t, m, StatusMsg{LastError: errors.New("connection refused"), Failures: 3, Offline: true})

	if view := m.View(); !strings.Contains(view, "offline (3 failed refreshes)") {
		t.Fatalf("view missing offline marker:\n%s", view)
	}

	m, _ = update(t, m, StatusMsg{LastError: errors.New("connection refused"), Failures: 1})
	if view := m.View(); !strings.Contains(view, "refresh failed: connection refused") {
		t.Fatalf("view missing failure:\n%s", view)
	}
}

func TestModel_EnterOpensDetailAndEscReturns(t *testing.T) {
	src := &fakeSource{recipes: []api.Recipe{{ID: 7, Title: "Tomato soup", Ingredients: "tomatoes\nsalt", Steps: "simmer"}}}
	m := newTestModel(src)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", m.mode)
	}
	view := m.View()
	for _, want := range []string{"#7 Tomato soup", "Ingredients", "tomatoes", "simmer", "esc back"} {
		if !strings.Contains(view, want) {
			t.Fatalf("detail view missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeList {
		t.Fatalf("mode = %v, want list", m.mode)
	}
}

func TestModel_EnterWithoutRecipesStaysOnList(t *testing.T) {
	m := newTestModel(&fakeSource{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeList {
		t.Fatalf("mode = %v, want list", m.mode)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newTestModel(&fakeSource{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("q returned nil command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q command produced %T, want tea.QuitMsg", cmd())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abc  ", 10); got != "abc" {
		t.Fatalf("truncate short = %q, want abc", got)
	}
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q, want abc...", got)
	}
	if got := truncate("abcd", 2); got != "ab" {
		t.Fatalf("truncate limit<=3 = %q, want ab", got)
	}
}

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-5 * time.Second, "now"},
		{12 * time.Second, "12s"},
		{61 * time.Second, "1m"},
		{2*time.Hour + 10*time.Second, "2h"},
	}
	for _, tc := range cases {
		if got := humanizeDuration(tc.in); got != tc.want {
			t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
