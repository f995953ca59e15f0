package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Name identifies a route.
type Name string

const (
	Home         Name = "Home"
	RecipeList   Name = "RecipeList"
	RecipeCreate Name = "RecipeCreate"
	RecipeDetail Name = "RecipeDetail"
	RecipeEdit   Name = "RecipeEdit"
	MyRecipes    Name = "MyRecipes"
	Favorites    Name = "Favorites"
	Profile      Name = "Profile"
	Auth         Name = "Auth"
	Register     Name = "Register"
	Admin        Name = "Admin"
	AdminUsers   Name = "AdminUsers"
	AdminRecipes Name = "AdminRecipes"
	NotFound     Name = "NotFound"
)

// LoginPath and HomePath are the redirect targets.
const (
	LoginPath = "/auth"
	HomePath  = "/"
)

// Route is one navigable destination and its access requirements.
type Route struct {
	Name    Name
	Pattern string
	// RequiresAuth routes need a signed-in session.
	RequiresAuth bool
	// RequiresAdmin routes need a staff session. They imply RequiresAuth.
	RequiresAdmin bool
	// GuestOnly routes are for signed-out sessions only.
	GuestOnly bool
}

// DefaultRoutes is ladle's navigation table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: Home, Pattern: "/"},
		{Name: RecipeList, Pattern: "/recipes"},
		{Name: RecipeCreate, Pattern: "/recipes/new", RequiresAuth: true},
		{Name: RecipeDetail, Pattern: "/recipes/{id}"},
		{Name: RecipeEdit, Pattern: "/recipes/{id}/edit", RequiresAuth: true},
		{Name: MyRecipes, Pattern: "/my-recipes", RequiresAuth: true},
		{Name: Favorites, Pattern: "/favorites", RequiresAuth: true},
		{Name: Profile, Pattern: "/profile", RequiresAuth: true},
		{Name: Auth, Pattern: LoginPath, GuestOnly: true},
		{Name: Register, Pattern: "/register", GuestOnly: true},
		{Name: Admin, Pattern: "/admin", RequiresAuth: true, RequiresAdmin: true},
		{Name: AdminUsers, Pattern: "/admin/users", RequiresAuth: true, RequiresAdmin: true},
		{Name: AdminRecipes, Pattern: "/admin/recipes", RequiresAuth: true, RequiresAdmin: true},
	}
}

// Match is a resolved path.
type Match struct {
	Route    Route
	Params   map[string]string
	FullPath string
}

// Param returns the named path parameter, or "".
func (m Match) Param(key string) string {
	return m.Params[key]
}

// Table resolves paths against a fixed set of routes.
type Table struct {
	mux    *chi.Mux
	routes map[string]Route
}

// NewTable builds a table from routes. Later duplicates of a pattern replace
// earlier ones.
func NewTable(routes []Route) *Table {
	t := &Table{
		mux:    chi.NewRouter(),
		routes: make(map[string]Route, len(routes)),
	}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range routes {
		if _, dup := t.routes[r.Pattern]; !dup {
			t.mux.Get(r.Pattern, noop)
		}
		t.routes[r.Pattern] = r
	}
	return t
}

// Resolve finds the route for fullPath. The query string and fragment are
// ignored for matching but kept in Match.FullPath.
func (t *Table) Resolve(fullPath string) Match {
	path := fullPath
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Match{Route: Route{Name: NotFound, Pattern: path}, FullPath: fullPath}
	}
	route, ok := t.routes[rctx.RoutePattern()]
	if !ok {
		return Match{Route: Route{Name: NotFound, Pattern: path}, FullPath: fullPath}
	}

	m := Match{Route: route, FullPath: fullPath}
	if n := len(rctx.URLParams.Keys); n > 0 {
		m.Params = make(map[string]string, n)
		for i, key := range rctx.URLParams.Keys {
			m.Params[key] = rctx.URLParams.Values[i]
		}
	}
	return m
}

// Routes lists the table's routes in route-tree order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	_ = chi.Walk(t.mux, func(_ string, pattern string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if r, ok := t.routes[pattern]; ok {
			out = append(out, r)
		}
		return nil
	})
	return out
}
