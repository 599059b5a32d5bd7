package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"github.com/spec-kit/support-console/internal/authapi"
	"github.com/spec-kit/support-console/internal/httpclient"
	"github.com/spec-kit/support-console/internal/resources"
	"github.com/spec-kit/support-console/internal/session"
)

var errNotLoggedIn = errors.New("not logged in (run: supportctl login)")

type command struct {
	name    string
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{name: "login", summary: "log in and store the session", flags: loginFlags, run: runLogin},
		{name: "logout", summary: "revoke all sessions and clear the stored one", run: runLogout},
		{name: "logout-one", summary: "revoke one session (default: the current one)", flags: logoutOneFlags, run: runLogoutOne},
		{name: "refresh", summary: "rotate the stored tokens now", run: runRefresh},
		{name: "whoami", summary: "print the logged-in user", run: runWhoAmI},
		{name: "session-id", summary: "print the current session id", run: runSessionID},
		{name: "list", summary: "list a collection: " + strings.Join(resources.Names, ", "), flags: listFlags, run: runList},
		{name: "get", summary: "get one record: get <collection> <id>", run: runGet},
		{name: "watch", summary: "print session changes until interrupted", run: runWatch},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func (c command) execute(ctx context.Context, a *app, args []string) error {
	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if c.flags != nil {
		c.flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return c.run(ctx, a, fs, fs.Args())
}

func loginFlags(fs *pflag.FlagSet) {
	fs.StringP("email", "e", "", "account email")
	fs.StringP("password", "p", "", "password (prompted when omitted)")
}

func runLogin(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	email, _ := fs.GetString("email")
	password, _ := fs.GetString("password")
	if email == "" && len(args) > 0 {
		email = args[0]
	}
	if strings.TrimSpace(email) == "" {
		return errors.New("login: --email is required")
	}
	if password == "" {
		var err error
		if password, err = a.readPassword(); err != nil {
			return err
		}
	}

	if err := a.provider.Login(ctx, authapi.Credentials{Email: email, Password: password}); err != nil {
		return fmt.Errorf("login failed: %s", loginMessage(err))
	}
	user := a.provider.State().User
	a.printf("Logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

// loginMessage prefers the server's own wording, so a 401 reads "invalid
// credentials" instead of the expired-session text.
func loginMessage(err error) string {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status != httpclient.StatusNetwork && httpErr.Message != "" {
		return httpErr.Message
	}
	return authapi.Message(err)
}

func runLogout(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	if err := a.provider.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func logoutOneFlags(fs *pflag.FlagSet) {
	fs.String("session", "", "session id to revoke (default: current session)")
}

func runLogoutOne(ctx context.Context, a *app, fs *pflag.FlagSet, _ []string) error {
	id, _ := fs.GetString("session")
	wasAuthenticated := a.provider.IsAuthenticated()
	if err := a.provider.LogoutOne(ctx, id); err != nil {
		if errors.Is(err, session.ErrNoSessionID) {
			return errNotLoggedIn
		}
		return err
	}
	if wasAuthenticated && !a.provider.IsAuthenticated() {
		a.printf("Revoked current session; logged out\n")
		return nil
	}
	a.printf("Revoked session %s\n", id)
	return nil
}

func runRefresh(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	if !a.provider.IsAuthenticated() {
		return errNotLoggedIn
	}
	if err := a.provider.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh failed: %s", authapi.Message(err))
	}
	a.printf("Tokens refreshed\n")
	return nil
}

func runWhoAmI(_ context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	state := a.provider.State()
	if !state.IsAuthenticated() {
		return errNotLoggedIn
	}
	return a.printJSON(state.User)
}

func runSessionID(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	id, err := a.provider.CurrentSessionID(ctx)
	if err != nil {
		return errNotLoggedIn
	}
	a.printf("%s\n", id)
	return nil
}

func listFlags(fs *pflag.FlagSet) {
	fs.Int("offset", 0, "records to skip")
	fs.Int("limit", resources.DefaultLimit, "page size")
	fs.StringArrayP("filter", "f", nil, "exact-match filter field=value (repeatable)")
	fs.Bool("all", false, "walk every page")
}

func runList(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("list: want one collection (%s)", strings.Join(resources.Names, ", "))
	}
	coll, ok := resources.Raw(a.gateway, args[0])
	if !ok {
		return fmt.Errorf("list: unknown collection %q", args[0])
	}

	offset, _ := fs.GetInt("offset")
	limit, _ := fs.GetInt("limit")
	rawFilters, _ := fs.GetStringArray("filter")
	all, _ := fs.GetBool("all")

	q := resources.ListQuery{Offset: offset, Limit: limit, Filters: map[string]string{}}
	for _, f := range rawFilters {
		field, value, ok := strings.Cut(f, "=")
		if !ok || field == "" {
			return fmt.Errorf("list: filter %q is not field=value", f)
		}
		q.Filters[field] = value
	}

	if all {
		items, err := coll.All(ctx, q)
		if err != nil {
			return requestError(err)
		}
		return a.printJSON(items)
	}
	page, err := coll.List(ctx, q)
	if err != nil {
		return requestError(err)
	}
	return a.printJSON(page)
}

func runGet(ctx context.Context, a *app, _ *pflag.FlagSet, args []string) error {
	if len(args) != 2 {
		return errors.New("get: want <collection> <id>")
	}
	coll, ok := resources.Raw(a.gateway, args[0])
	if !ok {
		return fmt.Errorf("get: unknown collection %q", args[0])
	}
	rec, err := coll.Get(ctx, args[1])
	if err != nil {
		return requestError(err)
	}
	return a.printJSON(rec)
}

func runWatch(ctx context.Context, a *app, _ *pflag.FlagSet, _ []string) error {
	printState := func(s session.State) {
		if s.IsAuthenticated() {
			a.printf("session: logged in as %s\n", s.User.Email)
			return
		}
		a.printf("session: logged out\n")
	}

	var mu sync.Mutex
	last := a.provider.IsAuthenticated()
	unsubscribe := a.provider.Subscribe(func(s session.State) {
		mu.Lock()
		defer mu.Unlock()
		if now := s.IsAuthenticated(); now != last {
			last = now
			printState(s)
		}
	})
	defer unsubscribe()

	if err := a.provider.Start(ctx); err != nil {
		return err
	}
	mu.Lock()
	state := a.provider.State()
	last = state.IsAuthenticated()
	printState(state)
	mu.Unlock()

	<-ctx.Done()
	return nil
}

func requestError(err error) error {
	if httpclient.IsUnauthorized(err) {
		return errors.New(authapi.MsgInvalidSession)
	}
	return errors.New(authapi.Message(err))
}
