package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/ladle/internal/api"
	"github.com/five82/ladle/internal/httpclient"
	"github.com/five82/ladle/internal/logtail"
	"github.com/five82/ladle/internal/prefs"
	"github.com/five82/ladle/internal/router"
	"github.com/five82/ladle/internal/store"
	"github.com/five82/ladle/internal/ui"
)

const defaultLogLines = 50

type command struct {
	usage   string
	summary string
	// route is the page the command acts on. The guard checks it before run;
	// nil skips the check.
	route func(args []string) string
	run   func(ctx context.Context, rt *runtime, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login": {
			usage: "login <username> [password]", summary: "sign in; reads the password from stdin when omitted",
			route: staticRoute(router.LoginPath), run: cmdLogin,
		},
		"register": {
			usage: "register <username> <email> [password]", summary: "create an account",
			route: staticRoute("/register"), run: cmdRegister,
		},
		"logout": {usage: "logout", summary: "sign out and forget the stored session", run: cmdLogout},
		"whoami": {
			usage: "whoami", summary: "show the signed-in profile",
			route: staticRoute("/profile"), run: cmdWhoami,
		},
		"recipes": {
			usage: "recipes [-category id] [-owner name] [-ordering field] [-page n] [search...]", summary: "list recipes",
			route: staticRoute("/recipes"), run: cmdRecipes,
		},
		"mine": {
			usage: "mine", summary: "list your recipes",
			route: staticRoute("/my-recipes"), run: cmdMine,
		},
		"show": {
			usage: "show <id>", summary: "show a recipe with its ratings and comments",
			route: recipeRoute(""), run: cmdShow,
		},
		"create": {
			usage: "create -title t [-description d] [-ingredients i] [-steps s] [-category id]", summary: "create a recipe",
			route: staticRoute("/recipes/new"), run: cmdCreate,
		},
		"edit": {
			usage: "edit <id> [-title t] [-description d] [-ingredients i] [-steps s] [-category id]", summary: "change a recipe",
			route: recipeRoute("/edit"), run: cmdEdit,
		},
		"delete": {
			usage: "delete <id>", summary: "delete a recipe",
			route: recipeRoute("/edit"), run: cmdDelete,
		},
		"fav": {
			usage: "fav <id>", summary: "toggle a recipe as favorite",
			route: staticRoute("/favorites"), run: cmdFav,
		},
		"favorites": {
			usage: "favorites", summary: "list your favorites",
			route: staticRoute("/favorites"), run: cmdFavorites,
		},
		"rate": {
			usage: "rate <id> <1-5> [comment...]", summary: "rate a recipe",
			route: recipeRoute(""), run: cmdRate,
		},
		"comment": {
			usage: "comment [-edit comment-id | -delete comment-id] <recipe-id> [text...]", summary: "add, edit, or delete a comment",
			route: commentRoute, run: cmdComment,
		},
		"categories": {
			usage: "categories [add <name>]", summary: "list or add categories",
			route: staticRoute("/recipes"), run: cmdCategories,
		},
		"open": {usage: "open <path>", summary: "navigate to a page path such as /recipes/7", run: cmdOpen},
		"profile": {
			usage: "profile [-email e] [-first name] [-last name]", summary: "change your profile",
			route: staticRoute("/profile"), run: cmdProfile,
		},
		"admin-users": {
			usage: "admin-users [user-id]", summary: "list accounts or show one (staff)",
			route: staticRoute("/admin/users"), run: cmdAdminUsers,
		},
		"promote": {
			usage: "promote [-revoke] <user-id>", summary: "grant or revoke staff access (staff)",
			route: staticRoute("/admin/users"), run: cmdPromote,
		},
		"moderate": {
			usage:   "moderate <recipe-id> [-title t] [-description d] [-ingredients i] [-steps s] [-category id] | moderate -delete <recipe-id>",
			summary: "edit or remove any recipe (staff)",
			route:   staticRoute("/admin/recipes"),
			run:     cmdModerate,
		},
		"watch": {
			usage: "watch [-tui]", summary: "keep recipes and categories fresh until interrupted",
			route: staticRoute("/recipes"), run: cmdWatch,
		},
		"logs": {usage: "logs [lines]", summary: "print the end of the log file", run: cmdLogs},
	}
}

func staticRoute(path string) func([]string) string {
	return func([]string) string { return path }
}

// recipeRoute builds /recipes/<id><suffix> from a leading recipe id.
func recipeRoute(suffix string) func([]string) string {
	return func(args []string) string {
		if len(args) == 0 {
			return "/recipes"
		}
		if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
			return "/recipes"
		}
		return "/recipes/" + args[0] + suffix
	}
}

func commentRoute(args []string) string {
	fs, _, _ := commentFlags()
	if err := fs.Parse(args); err != nil {
		return "/recipes"
	}
	return recipeRoute("")(fs.Args())
}

// admit runs the navigation guard for cmd.
func (rt *runtime) admit(cmd command, args []string) error {
	if cmd.route == nil {
		return nil
	}
	path := cmd.route(args)
	match, d := rt.routes.Navigate(path, rt.store)
	switch d.Outcome {
	case router.RedirectLogin:
		return rt.signInRequired(path)
	case router.RedirectHome:
		if match.Route.GuestOnly {
			return fmt.Errorf("already signed in as %s; run \"ladle logout\" first", rt.username())
		}
		return fmt.Errorf("%w: %s", ErrForbidden, path)
	}
	return nil
}

func (rt *runtime) signInRequired(path string) error {
	rt.rememberRedirect(path)
	return fmt.Errorf("%w: run \"ladle login\" to continue to %s", ErrSignInRequired, path)
}

func (rt *runtime) requireSession(path string) error {
	if rt.store.IsAuthenticated() {
		return nil
	}
	return rt.signInRequired(path)
}

func (rt *runtime) username() string {
	if u := rt.store.CurrentUser(); u != nil && u.Username != "" {
		return u.Username
	}
	if name := rt.api.Session().Username; name != "" {
		return name
	}
	return "unknown user"
}

// actionError carries the store's display message while keeping the cause
// available to errors.Is.
type actionError struct {
	msg string
	err error
}

func (e *actionError) Error() string { return e.msg }
func (e *actionError) Unwrap() error { return e.err }

func (rt *runtime) failed(err error) error {
	if err == nil {
		return nil
	}
	msg := rt.store.Error()
	if msg == "" {
		return err
	}
	return &actionError{msg: msg, err: err}
}

// apiFailed formats an error from a call that bypasses the store the way
// the store's actions would.
func apiFailed(err error, fallback string) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	msg := httpclient.Message(err, fallback)
	if errors.Is(err, httpclient.ErrSessionExpired) {
		msg = store.SessionExpiredMessage
	}
	return &actionError{msg: msg, err: err}
}

func usageError(name string) error {
	return fmt.Errorf("%w: ladle %s", ErrUsage, commands[name].usage)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", ErrUsage, raw)
	}
	return id, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func cmdLogin(ctx context.Context, rt *runtime, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("login")
	}
	password := ""
	if len(args) == 2 {
		password = args[1]
	} else {
		var err error
		if password, err = readLine(rt.stdin); err != nil {
			return err
		}
	}

	resp, err := rt.store.Login(ctx, api.Credentials{Username: args[0], Password: password})
	if err != nil {
		return rt.failed(err)
	}
	name := resp.User.Username
	if name == "" {
		name = args[0]
	}
	fmt.Fprintf(rt.out, "Signed in as %s\n", name)

	target, err := prefs.TakePendingRedirect(rt.prefsPath)
	if err != nil {
		rt.log.Warn("read pending redirect", zap.Error(err))
	}
	if target == "" {
		return nil
	}
	fmt.Fprintf(rt.out, "Continuing to %s\n", target)
	return rt.open(ctx, target)
}

func cmdRegister(ctx context.Context, rt *runtime, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usageError("register")
	}
	password := ""
	if len(args) == 3 {
		password = args[2]
	} else {
		var err error
		if password, err = readLine(rt.stdin); err != nil {
			return err
		}
	}
	user, err := rt.store.Register(ctx, api.Registration{
		Username:  args[0],
		Email:     args[1],
		Password:  password,
		Password2: password,
	})
	if err != nil {
		return rt.failed(err)
	}
	name := user.Username
	if name == "" {
		name = args[0]
	}
	fmt.Fprintf(rt.out, "Account %s created; sign in with \"ladle login %s\"\n", name, name)
	return nil
}

func cmdLogout(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.store.Logout(ctx); err != nil {
		return fmt.Errorf("clear local session: %w", err)
	}
	fmt.Fprintln(rt.out, "Signed out")
	return nil
}

func cmdWhoami(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.store.FetchProfile(ctx); err != nil {
		return rt.failed(err)
	}
	printUser(rt.out, rt.store.CurrentUser())
	return nil
}

func cmdRecipes(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("recipes", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.Int64("category", 0, "category id")
	owner := fs.String("owner", "", "owner username")
	ordering := fs.String("ordering", "", "sort field")
	page := fs.Int("page", 0, "page number")
	if err := fs.Parse(args); err != nil {
		return usageError("recipes")
	}

	q := api.RecipeQuery{
		Search:   strings.Join(fs.Args(), " "),
		Category: *category,
		Owner:    *owner,
		Ordering: *ordering,
		Page:     *page,
	}
	return rt.listRecipes(ctx, q)
}

func (rt *runtime) listRecipes(ctx context.Context, q api.RecipeQuery) error {
	if q.Ordering == "" {
		p, _ := prefs.Load(rt.prefsPath)
		q.Ordering = p.Ordering
	}
	if err := rt.store.FetchRecipes(ctx, q); err != nil {
		return rt.failed(err)
	}
	printRecipes(rt.out, rt.store.Recipes())
	return nil
}

func cmdMine(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.store.FetchMyRecipes(ctx); err != nil {
		return rt.failed(err)
	}
	printRecipes(rt.out, rt.store.MyRecipes())
	return nil
}

func cmdShow(ctx context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return usageError("show")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return rt.showRecipe(ctx, id)
}

func (rt *runtime) showRecipe(ctx context.Context, id int64) error {
	recipe, err := rt.store.FetchRecipe(ctx, id)
	if err != nil {
		return rt.failed(err)
	}
	if rt.store.IsAuthenticated() {
		if err := rt.store.FetchFavorites(ctx); err != nil {
			rt.log.Debug("favorites unavailable for detail view")
		}
	}
	printRecipe(rt.out, recipe, rt.store.IsFavorite(id))
	return nil
}

// recipeFlags registers the writable recipe fields on fs.
func recipeFlags(fs *flag.FlagSet) func() api.RecipeInput {
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	ingredients := fs.String("ingredients", "", "ingredients")
	steps := fs.String("steps", "", "steps")
	category := fs.Int64("category", 0, "category id")
	return func() api.RecipeInput {
		var in api.RecipeInput
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "title":
				in.Title = title
			case "description":
				in.Description = description
			case "ingredients":
				in.Ingredients = ingredients
			case "steps":
				in.Steps = steps
			case "category":
				in.Category = category
			}
		})
		return in
	}
}

func cmdCreate(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	input := recipeFlags(fs)
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("create")
	}
	in := input()
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return usageError("create")
	}

	recipe, err := rt.store.CreateRecipe(ctx, in)
	if err != nil {
		return rt.failed(err)
	}
	fmt.Fprintf(rt.out, "Created recipe #%d %s\n", recipe.ID, recipe.Title)
	return nil
}

func cmdEdit(ctx context.Context, rt *runtime, args []string) error {
	if len(args) < 2 {
		return usageError("edit")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	input := recipeFlags(fs)
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() > 0 || fs.NFlag() == 0 {
		return usageError("edit")
	}

	recipe, err := rt.store.UpdateRecipe(ctx, id, input())
	if err != nil {
		return rt.failed(err)
	}
	fmt.Fprintf(rt.out, "Updated recipe #%d %s\n", recipe.ID, recipe.Title)
	return nil
}

func cmdDelete(ctx context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return usageError("delete")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := rt.store.DeleteRecipe(ctx, id); err != nil {
		return rt.failed(err)
	}
	fmt.Fprintf(rt.out, "Deleted recipe #%d\n", id)
	return nil
}

func cmdFav(ctx context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return usageError("fav")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := rt.store.FetchFavorites(ctx); err != nil {
		return rt.failed(err)
	}
	on, err := rt.store.ToggleFavorite(ctx, id)
	if err != nil {
		return rt.failed(err)
	}
	if on {
		fmt.Fprintf(rt.out, "Added recipe #%d to favorites\n", id)
	} else {
		fmt.Fprintf(rt.out, "Removed recipe #%d from favorites\n", id)
	}
	return nil
}

func cmdFavorites(ctx context.Context, rt *runtime, _ []string) error {
	if err := rt.store.FetchFavorites(ctx); err != nil {
		return rt.failed(err)
	}
	printFavorites(rt.out, rt.store.Favorites())
	return nil
}

func cmdRate(ctx context.Context, rt *runtime, args []string) error {
	if len(args) < 2 {
		return usageError("rate")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return usageError("rate")
	}
	if err := rt.requireSession(fmt.Sprintf("/recipes/%d", id)); err != nil {
		return err
	}
	if err := rt.store.RateRecipe(ctx, id, rating, strings.Join(args[2:], " ")); err != nil {
		return rt.failed(err)
	}
	if r := rt.store.CurrentRecipe(); r != nil {
		fmt.Fprintf(rt.out, "Rated recipe #%d; average now %.1f\n", id, r.AverageRating)
	}
	return nil
}

func commentFlags() (fs *flag.FlagSet, editID, deleteID *int64) {
	fs = flag.NewFlagSet("comment", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	editID = fs.Int64("edit", 0, "comment id to edit")
	deleteID = fs.Int64("delete", 0, "comment id to delete")
	return fs, editID, deleteID
}

func cmdComment(ctx context.Context, rt *runtime, args []string) error {
	fs, editID, deleteID := commentFlags()
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 || (*editID > 0 && *deleteID > 0) {
		return usageError("comment")
	}
	recipeID, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	text := strings.Join(fs.Args()[1:], " ")
	if err := rt.requireSession(fmt.Sprintf("/recipes/%d", recipeID)); err != nil {
		return err
	}

	switch {
	case *deleteID > 0:
		err = rt.store.DeleteComment(ctx, recipeID, *deleteID)
	case *editID > 0:
		err = rt.store.UpdateComment(ctx, recipeID, *editID, text)
	default:
		err = rt.store.AddComment(ctx, recipeID, text)
	}
	if err != nil {
		return rt.failed(err)
	}
	if r := rt.store.CurrentRecipe(); r != nil {
		printComments(rt.out, r.Comments)
	}
	return nil
}

func cmdCategories(ctx context.Context, rt *runtime, args []string) error {
	if len(args) > 0 {
		if args[0] != "add" || len(args) < 2 {
			return usageError("categories")
		}
		if err := rt.requireSession("/recipes/new"); err != nil {
			return err
		}
		cat, err := rt.store.CreateCategory(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return rt.failed(err)
		}
		fmt.Fprintf(rt.out, "Created category #%d %s\n", cat.ID, cat.Name)
		return nil
	}
	if err := rt.store.FetchCategories(ctx); err != nil {
		return rt.failed(err)
	}
	printCategories(rt.out, rt.store.Categories())
	return nil
}

func cmdOpen(ctx context.Context, rt *runtime, args []string) error {
	if len(args) != 1 {
		return usageError("open")
	}
	return rt.open(ctx, args[0])
}

// open navigates to fullPath, following guard redirects.
func (rt *runtime) open(ctx context.Context, fullPath string) error {
	match, d := rt.routes.Navigate(fullPath, rt.store)
	switch d.Outcome {
	case router.RedirectLogin:
		rt.rememberRedirect(fullPath)
		fmt.Fprintf(rt.out, "Sign in required; redirecting to %s\n", d.Location)
		fmt.Fprintln(rt.out, "Run \"ladle login\" to continue.")
		return nil
	case router.RedirectHome:
		fmt.Fprintf(rt.out, "Redirecting to %s\n", d.Location)
		match = rt.routes.Resolve(d.Location)
	}
	return rt.render(ctx, match)
}

func (rt *runtime) render(ctx context.Context, m router.Match) error {
	switch m.Route.Name {
	case router.Home, router.RecipeList:
		return rt.listRecipes(ctx, queryFromPath(m.FullPath))
	case router.RecipeDetail, router.RecipeEdit:
		id, err := parseID(m.Param("id"))
		if err != nil {
			return err
		}
		if err := rt.showRecipe(ctx, id); err != nil {
			return err
		}
		if m.Route.Name == router.RecipeEdit {
			fmt.Fprintf(rt.out, "\nEdit with \"ladle edit %d -title ...\"\n", id)
		}
		return nil
	case router.RecipeCreate:
		fmt.Fprintln(rt.out, "Create a recipe with \"ladle create -title ...\"")
		return nil
	case router.MyRecipes:
		return cmdMine(ctx, rt, nil)
	case router.Favorites:
		return cmdFavorites(ctx, rt, nil)
	case router.Profile:
		return cmdWhoami(ctx, rt, nil)
	case router.Auth:
		fmt.Fprintln(rt.out, "Sign in with \"ladle login <username>\"")
		return nil
	case router.Register:
		fmt.Fprintln(rt.out, "Create an account with \"ladle register <username> <email>\"")
		return nil
	case router.Admin:
		fmt.Fprintln(rt.out, "Admin pages: /admin/users, /admin/recipes")
		return nil
	case router.AdminUsers:
		return cmdAdminUsers(ctx, rt, nil)
	case router.AdminRecipes:
		recipes, err := rt.api.AdminRecipes(ctx, queryFromPath(m.FullPath))
		if err != nil {
			return apiFailed(err, "Failed to fetch recipes")
		}
		printRecipes(rt.out, recipes)
		return nil
	default:
		return fmt.Errorf("page not found: %s", m.FullPath)
	}
}

// queryFromPath reads list filters from a page path such as
// /recipes?search=soup&category=2.
func queryFromPath(fullPath string) api.RecipeQuery {
	u, err := url.Parse(fullPath)
	if err != nil {
		return api.RecipeQuery{}
	}
	v := u.Query()
	category, _ := strconv.ParseInt(v.Get("category"), 10, 64)
	page, _ := strconv.Atoi(v.Get("page"))
	return api.RecipeQuery{
		Search:   v.Get("search"),
		Category: category,
		Owner:    v.Get("owner"),
		Ordering: v.Get("ordering"),
		Page:     page,
	}
}

func cmdProfile(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "email address")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 || fs.NFlag() == 0 {
		return usageError("profile")
	}

	var update api.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "email":
			update.Email = email
		case "first":
			update.FirstName = first
		case "last":
			update.LastName = last
		}
	})
	if _, err := rt.store.UpdateProfile(ctx, update); err != nil {
		return rt.failed(err)
	}
	printUser(rt.out, rt.store.CurrentUser())
	return nil
}

func cmdAdminUsers(ctx context.Context, rt *runtime, args []string) error {
	if len(args) > 1 {
		return usageError("admin-users")
	}
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		user, err := rt.api.AdminUser(ctx, id)
		if err != nil {
			return apiFailed(err, "Failed to fetch user")
		}
		printUser(rt.out, &user)
		return nil
	}
	if err := rt.store.FetchAdminUsers(ctx); err != nil {
		return rt.failed(err)
	}
	printUsers(rt.out, rt.store.AdminUsers())
	return nil
}

func cmdPromote(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	revoke := fs.Bool("revoke", false, "remove staff access")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usageError("promote")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	staff := !*revoke
	user, err := rt.store.UpdateAdminUser(ctx, id, api.AdminUserUpdate{IsStaff: &staff})
	if err != nil {
		return rt.failed(err)
	}
	if user.IsStaff {
		fmt.Fprintf(rt.out, "User #%d %s is now staff\n", user.ID, user.Username)
	} else {
		fmt.Fprintf(rt.out, "User #%d %s is no longer staff\n", user.ID, user.Username)
	}
	return nil
}

// cmdModerate goes straight to the API: moderation results are not part of
// the store's state.
func cmdModerate(ctx context.Context, rt *runtime, args []string) error {
	if len(args) == 2 && args[0] == "-delete" {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := rt.api.DeleteAdminRecipe(ctx, id); err != nil {
			return apiFailed(err, "Failed to delete recipe")
		}
		fmt.Fprintf(rt.out, "Removed recipe #%d\n", id)
		return nil
	}
	if len(args) < 2 {
		return usageError("moderate")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("moderate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	input := recipeFlags(fs)
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() > 0 || fs.NFlag() == 0 {
		return usageError("moderate")
	}
	recipe, err := rt.api.UpdateAdminRecipe(ctx, id, input())
	if err != nil {
		return apiFailed(err, "Failed to update recipe")
	}
	fmt.Fprintf(rt.out, "Updated recipe #%d %s\n", recipe.ID, recipe.Title)
	return nil
}

func cmdWatch(ctx context.Context, rt *runtime, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dashboard := fs.Bool("tui", false, "show a live dashboard")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError("watch")
	}

	p, _ := prefs.Load(rt.prefsPath)
	opts := PollerOptions{
		Interval: rt.interval,
		Query:    api.RecipeQuery{Ordering: p.Ordering},
		Logger:   rt.log,
	}
	if *dashboard {
		return rt.watchDashboard(ctx, opts)
	}

	unsubscribe := rt.store.Subscribe(func(m store.Mutation) {
		if m.Name() == "SET_RECIPES" {
			fmt.Fprintf(rt.out, "%d recipes, %d categories\n", len(rt.store.Recipes()), len(rt.store.Categories()))
		}
	})
	defer unsubscribe()

	opts.OnUpdate = func(s PollStatus) {
		if s.IsOffline() {
			fmt.Fprintf(rt.errOut, "offline: %d failed refreshes, last error: %v\n", s.ConsecutiveFailures, s.LastError)
		}
	}
	<-StartPoller(ctx, rt.store, opts)
	return nil
}

func (rt *runtime) watchDashboard(ctx context.Context, opts PollerOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	statuses := make(chan ui.Status, 1)
	opts.OnUpdate = func(s PollStatus) {
		status := ui.Status{
			LastUpdated: s.LastUpdated,
			LastError:   s.LastError,
			Failures:    s.ConsecutiveFailures,
			Offline:     s.IsOffline(),
		}
		select {
		case statuses <- status:
		case <-ctx.Done():
		}
	}
	done := StartPoller(ctx, rt.store, opts)

	err := ui.Run(ctx, ui.Options{
		Source:    rt.store,
		Statuses:  statuses,
		Input:     rt.stdin,
		Output:    rt.out,
		AltScreen: true,
	})
	cancel()
	<-done
	return err
}

func cmdLogs(_ context.Context, rt *runtime, args []string) error {
	lines := defaultLogLines
	if len(args) > 1 {
		return usageError("logs")
	}
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return usageError("logs")
		}
		lines = n
	}
	if rt.cfg.LogFile == "" {
		return errors.New("logging goes to stderr; set log_file to keep a log")
	}
	tail, err := logtail.Read(rt.cfg.LogFile, lines)
	if err != nil {
		return err
	}
	for _, line := range logtail.FormatLines(tail) {
		fmt.Fprintln(rt.out, line)
	}
	return nil
}
