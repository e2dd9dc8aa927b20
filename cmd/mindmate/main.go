package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mindmate-app/mindmate/internal/config"
	"github.com/mindmate-app/mindmate/internal/logging"
	"github.com/mindmate-app/mindmate/internal/session"
	"github.com/mindmate-app/mindmate/pkg/client"
)

const usage = `usage: mindmate <command> [args]

commands:
  login             sign in with email and password
  register          create a student or counsellor account
  logout            sign out and forget the stored session
  whoami            show the signed-in profile
  open [path]       check whether a page would render, e.g. open /booking;
                    without a path, list every page and its outcome
  quizzes           list available self-assessments
  quiz <id>         take a self-assessment
  chat              talk to MindBot
`

func main() {
	logging.SetupCLI(slog.LevelWarn)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	tokenPath := cfg.TokenFile
	if tokenPath == "" {
		tokenPath, err = session.DefaultTokenPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(cfg.APIURL, client.WithTimeout(cfg.Timeout))
	a := newApp(api, session.NewFileStore(tokenPath), os.Stdin, os.Stdout)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app wires the session, the SDK client and the terminal together
type app struct {
	api      *client.Client
	sessions *session.Manager
	in       *bufio.Reader
	out      io.Writer
	password func(prompt string) (string, error)
}

func newApp(api *client.Client, store session.TokenStore, in io.Reader, out io.Writer) *app {
	a := &app{
		api:      api,
		sessions: session.NewManager(api, store),
		in:       bufio.NewReader(in),
		out:      out,
	}
	a.password = a.readPassword
	return a
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	a.sessions.Restore(ctx)

	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "open":
		switch len(args) {
		case 0:
			return a.listPages()
		case 1:
			return a.open(args[0])
		}
		return fmt.Errorf("usage: mindmate open [path]")
	case "quizzes":
		return a.listQuizzes(ctx)
	case "quiz":
		if len(args) != 1 {
			return fmt.Errorf("usage: mindmate quiz <id>")
		}
		return a.takeQuiz(ctx, args[0])
	case "chat":
		return a.chat(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
