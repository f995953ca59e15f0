package app

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ladle/internal/api"
)

// styles degrade to plain text when the writer is not a color terminal.
type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
}

func stylesFor(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")),
		heading: r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#787c99")),
		accent:  r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printRecipes(w io.Writer, recipes []api.Recipe) {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tOWNER\tRATING")
	for _, r := range recipes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Title, dash(r.Owner), formatRating(r.AverageRating))
	}
	_ = tw.Flush()
}

func printRecipe(w io.Writer, r api.Recipe, favorite bool) {
	st := stylesFor(w)
	title := st.title.Render(fmt.Sprintf("#%d %s", r.ID, r.Title))
	if favorite {
		title += " " + st.accent.Render("★")
	}
	fmt.Fprintln(w, title)
	if r.Owner != "" {
		fmt.Fprintln(w, st.muted.Render("by "+r.Owner))
	}
	if r.Description != "" {
		fmt.Fprintf(w, "\n%s\n", r.Description)
	}
	section(w, st, "Ingredients", r.Ingredients)
	section(w, st, "Steps", r.Steps)

	if len(r.Ratings) > 0 {
		fmt.Fprintf(w, "\n%s\n", st.heading.Render("Ratings (average "+formatRating(r.AverageRating)+")"))
		for _, rating := range r.Ratings {
			line := fmt.Sprintf("  %s: %d/5", rating.User, rating.Rating)
			if rating.Comment != "" {
				line += " " + rating.Comment
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(r.Comments) > 0 {
		fmt.Fprintln(w)
		printComments(w, r.Comments)
	}
}

func section(w io.Writer, st styles, heading, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Fprintf(w, "\n%s\n", st.heading.Render(heading))
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(w, "  %s\n", strings.TrimSpace(line))
	}
}

func printComments(w io.Writer, comments []api.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments")
		return
	}
	fmt.Fprintln(w, stylesFor(w).heading.Render("Comments"))
	tw := newTable(w)
	for _, c := range comments {
		when := ""
		if !c.CreatedAt.IsZero() {
			when = c.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "  [%d]\t%s\t%s\t%s\n", c.ID, c.User, when, c.Text)
	}
	_ = tw.Flush()
}

func printFavorites(w io.Writer, favorites []api.Favorite) {
	recipes := make([]api.Recipe, 0, len(favorites))
	for _, f := range favorites {
		recipes = append(recipes, f.Recipe)
	}
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No favorites yet")
		return
	}
	printRecipes(w, recipes)
}

func printCategories(w io.Writer, categories []api.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories")
		return
	}
	sorted := slices.Clone(categories)
	slices.SortFunc(sorted, func(a, b api.Category) int { return strings.Compare(a.Name, b.Name) })
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range sorted {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	_ = tw.Flush()
}

func printUser(w io.Writer, u *api.User) {
	if u == nil {
		fmt.Fprintln(w, "Not signed in")
		return
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Username\t%s\n", u.Username)
	if u.Email != "" {
		fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		fmt.Fprintf(tw, "Name\t%s\n", name)
	}
	fmt.Fprintf(tw, "Staff\t%s\n", yesNo(u.IsStaff))
	if !u.DateJoined.IsZero() {
		fmt.Fprintf(tw, "Joined\t%s\n", u.DateJoined.Local().Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []api.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tSTAFF\tACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, dash(u.Email), yesNo(u.IsStaff), yesNo(u.IsActive))
	}
	_ = tw.Flush()
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: ladle [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	tw := newTable(w)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", commands[name].usage, commands[name].summary)
	}
	fmt.Fprintf(tw, "  %s\t%s\n", "help", "show this message")
	_ = tw.Flush()
}

func formatRating(avg float64) string {
	if avg <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", avg)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
