package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"dashboard/internal/api"
	"dashboard/internal/config"
	"dashboard/internal/routes"
	"dashboard/internal/session"
	"dashboard/internal/storage"

	"golang.org/x/term"
)

const usage = `Usage: dashboard [-api <url>] [-state <path>] [-env <file>] <command> [args]

Commands:
  login      -email <email> [-password <password>]
  register   -username <name> -email <email> [-password <password>]
  logout
  whoami
  dashboard  overview of tasks and expenses
  todos      [list|add|toggle|rm]
  expenses   [list|add|rm|stats]
  admin      [stats|users|add|role|rm]
`

var (
	errLoginFailed  = errors.New("login failed")
	errLoginNeeded  = errors.New("not logged in: run 'dashboard login'")
	errAdminNeeded  = errors.New("admin access required")
	errMissingCmd   = errors.New("missing command")
	errUnknownCmd   = errors.New("unknown command")
	errMissingID    = errors.New("missing id")
	errNotFound     = errors.New("not found")
	errNotConfirmed = errors.New("request failed, nothing changed")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the wired dependencies of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	client  *api.Client
	store   *session.Store
	session *session.Controller
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	apiURL := fs.String("api", "", "API base URL (overrides "+config.EnvAPIURL+")")
	statePath := fs.String("state", "", "Path to the session state file (overrides "+config.EnvState+")")
	envFile := fs.String("env", ".env", "Optional .env file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return errMissingCmd
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *statePath != "" {
		cfg.StatePath = *statePath
	}

	if err := config.EnsureStateDir(cfg.StatePath); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := storage.NewDB(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("failed to open state: %w", err)
	}
	defer db.Close()

	logger := log.New(stderr, "", log.LstdFlags)
	store := session.NewStore(db, logger)
	client := api.NewClient(cfg.APIURL, store, api.WithTimeout(cfg.Timeout))
	ctl := session.NewController(store, client, logger)
	ctl.Initialize()

	a := &app{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		client:  client,
		store:   store,
		session: ctl,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		a.session.Logout()
		fmt.Fprintln(stdout, "Logged out")
		return nil
	case "whoami":
		return a.whoami()
	case "dashboard":
		return a.dashboard(ctx)
	case "todos":
		return a.todos(ctx, rest)
	case "expenses":
		return a.expenses(ctx, rest)
	case "admin":
		return a.admin(ctx, rest)
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("%w: %s", errUnknownCmd, cmd)
	}
}

// open applies the route guard for path.
func (a *app) open(path string) error {
	d := routes.Check(a.session.State(), path)
	switch {
	case d.Outcome == routes.Redirect && d.To == routes.Login:
		return errLoginNeeded
	case d.Outcome == routes.Redirect:
		return errAdminNeeded
	case d.Outcome == routes.Wait:
		return errors.New("session is still loading")
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	// Login keeps any previous session on failure, so success is a fresh
	// credential for the requested account.
	before, _ := a.store.Token()
	a.session.Login(ctx, *email, pw)
	after, ok := a.store.Token()
	u := a.session.User()
	if !ok || after == before || u == nil || !strings.EqualFold(u.Email, strings.TrimSpace(*email)) {
		return errLoginFailed
	}
	fmt.Fprintf(a.stdout, "Logged in as %s <%s>\n", u.Username, u.Email)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: username, email")
	}
	pw, err := a.password(*password)
	if err != nil {
		return err
	}

	if err := a.session.Register(ctx, *username, *email, pw); err != nil {
		return err
	}
	u := a.session.User()
	fmt.Fprintf(a.stdout, "Registered %s <%s>\n", u.Username, u.Email)
	return nil
}

func (a *app) whoami() error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.stdout, "Not logged in")
		return nil
	}
	role := u.Role
	if role == "" {
		role = "user"
	}
	fmt.Fprintf(a.stdout, "%s <%s> (%s)\n", u.Username, u.Email, role)
	for _, n := range routes.Navigation(u) {
		fmt.Fprintf(a.stdout, "  %-16s %s\n", n.Name, n.Href)
	}
	return nil
}

func (a *app) password(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(a.stdout, "Password: ")
	pw, err := readPassword(a.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.stdout)
	if strings.TrimSpace(pw) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return pw, nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
