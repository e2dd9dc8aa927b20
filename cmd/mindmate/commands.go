package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindmate-app/mindmate/internal/assessment"
	"github.com/mindmate-app/mindmate/internal/guard"
	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/session"
)

var errNotSignedIn = errors.New("not signed in, run mindmate login first")

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		var err error
		if *email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := a.password("Password: ")
	if err != nil {
		return err
	}

	res := a.sessions.Login(ctx, *email, password)
	if !res.Success {
		return errors.New(res.Message)
	}

	user := a.sessions.Snapshot().User
	fmt.Fprintf(a.out, "Welcome back, %s!\n", user.FirstName())
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	role := fs.String("role", string(models.RoleStudent), "student or counsellor")
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "display handle")
	fullName := fs.String("name", "", "full name")
	bio := fs.String("bio", "", "short bio")
	specs := fs.String("specializations", "", "comma separated, counsellors only")
	if err := fs.Parse(args); err != nil {
		return err
	}

	r, err := models.ParseRole(*role)
	if err != nil {
		return err
	}

	draft := session.ProfileDraft{
		Role:     r,
		Email:    *email,
		Username: *username,
		FullName: *fullName,
		Bio:      *bio,
	}
	if *specs != "" {
		draft.Specializations = strings.Split(*specs, ",")
		for i := range draft.Specializations {
			draft.Specializations[i] = strings.TrimSpace(draft.Specializations[i])
		}
	}

	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Email: ", &draft.Email},
		{"Username: ", &draft.Username},
		{"Full name: ", &draft.FullName},
	} {
		if *f.dst != "" {
			continue
		}
		if *f.dst, err = a.prompt(f.label); err != nil {
			return err
		}
	}

	if draft.Password, err = a.password("Password: "); err != nil {
		return err
	}
	if draft.ConfirmPassword, err = a.password("Confirm password: "); err != nil {
		return err
	}

	res := a.sessions.Register(ctx, draft)
	if !res.Success {
		return errors.New(res.Message)
	}

	fmt.Fprintf(a.out, "Welcome to MindMate, %s!\n", a.sessions.Snapshot().User.FirstName())
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.sessions.Snapshot().Token != "" {
		if err := a.api.Logout(ctx); err != nil {
			slog.Warn("server logout failed", "error", err)
		}
	}
	a.sessions.Logout()
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami() error {
	user := a.sessions.Snapshot().User
	if user == nil {
		return errNotSignedIn
	}

	fmt.Fprintf(a.out, "%s (@%s)\n%s, %s\n", user.FullName, user.Username, user.Email, user.Role)
	if len(user.Specializations) > 0 {
		fmt.Fprintf(a.out, "Specializations: %s\n", strings.Join(user.Specializations, ", "))
	}
	return nil
}

// open evaluates a page the way the router would and lists the menu on success
func (a *app) open(path string) error {
	snap := a.sessions.Snapshot()
	route, decision := guard.Navigate(path, snap)

	switch decision.Kind {
	case guard.NotFound:
		return fmt.Errorf("no page at %s", path)
	case guard.Redirect:
		fmt.Fprintf(a.out, "%s redirects to %s\n", path, decision.To)
		return nil
	case guard.ShowLoading:
		fmt.Fprintln(a.out, "Loading...")
		return nil
	}

	fmt.Fprintf(a.out, "%s: %s\n", route.Path, route.Title)
	if snap.User == nil {
		return nil
	}

	items, err := guard.NavItems(snap.User.Role)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Menu:")
	for _, item := range items {
		fmt.Fprintf(a.out, "  %-22s %s\n", item.Path, item.Title)
	}
	return nil
}

// listPages shows the guard outcome of every page for the current session
func (a *app) listPages() error {
	snap := a.sessions.Snapshot()
	for _, route := range guard.Routes() {
		_, decision := guard.Navigate(route.Path, snap)
		outcome := decision.Kind.String()
		if decision.Kind == guard.Redirect {
			outcome += " " + decision.To
		}
		fmt.Fprintf(a.out, "  %-22s %-16s %s\n", route.Path, route.Title, outcome)
	}
	return nil
}

// requirePage runs the guard for a page backing a command
func (a *app) requirePage(path string) (*models.User, error) {
	snap := a.sessions.Snapshot()
	_, decision := guard.Navigate(path, snap)
	switch {
	case decision.Kind == guard.Render:
		return snap.User, nil
	case decision.Kind == guard.Redirect && decision.To == guard.LoginPath:
		return nil, errNotSignedIn
	default:
		return nil, fmt.Errorf("%s is not available for your account", path)
	}
}

func (a *app) listQuizzes(ctx context.Context) error {
	if _, err := a.requirePage("/quiz"); err != nil {
		return err
	}

	quizzes, err := a.api.ListQuizzes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		fmt.Fprintln(a.out, "No quizzes available yet.")
		return nil
	}

	for _, q := range quizzes {
		fmt.Fprintf(a.out, "%s  %s [%s] %d questions, ~%d min\n",
			q.ID, q.Title, q.Category, len(q.Questions), assessment.EstimatedMinutes(&q))
	}
	return nil
}

func (a *app) takeQuiz(ctx context.Context, id string) error {
	user, err := a.requirePage("/quiz")
	if err != nil {
		return err
	}

	quiz, err := a.api.GetQuiz(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load quiz: %w", err)
	}

	return runQuiz(a.in, a.out, *quiz, user.Role)
}
