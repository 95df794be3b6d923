package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/petsocial/petsocial/apps/petsocial/internal/app"
	"github.com/petsocial/petsocial/apps/petsocial/internal/ui"
	"github.com/petsocial/petsocial/libs/config"
	"github.com/petsocial/petsocial/libs/runtime"
)

type env struct {
	app    *app.App
	term   *ui.Terminal
	print  ui.Printer
	out    io.Writer
	errOut io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"providers":    {"list sign-in providers", cmdProviders},
	"login":        {"sign in with a provider code", cmdLogin},
	"logout":       {"sign out and wipe stored credentials", cmdLogout},
	"whoami":       {"show the signed in user", cmdWhoami},
	"businesses":   {"list businesses (-type, -search)", cmdBusinesses},
	"business":     {"show a business and its services", cmdBusiness},
	"register":     {"register a new business", cmdRegister},
	"times":        {"list free times for a service on a date", cmdTimes},
	"book":         {"book an appointment", cmdBook},
	"appointments": {"list your appointments (-ics to export)", cmdAppointments},
	"cancel":       {"cancel an appointment", cmdCancel},
	"theme":        {"show or change colors and logo", cmdTheme},
	"feed":         {"show the feed, like or publish posts", cmdFeed},
	"groups":       {"list your or suggested groups", cmdGroups},
	"chats":        {"list conversations", cmdChats},
	"profile":      {"show your profile", cmdProfile},
	"health":       {"check the backend", cmdHealth},
}

// errUsage makes run exit with status 2.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := app.ConfigFromEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	fs := flag.NewFlagSet("petsocial", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		format    = fs.String("format", config.String("PETSOCIAL_FORMAT", "text"), "output format: text, json or yaml")
		assumeYes = fs.Bool("yes", false, "answer yes to every confirmation")
	)
	fs.StringVar(&cfg.API.BaseURL, "api", cfg.API.BaseURL, "backend base URL")
	fs.DurationVar(&cfg.API.Timeout, "timeout", cfg.API.Timeout, "request timeout")
	fs.StringVar(&cfg.CredstoreURL, "store", cfg.CredstoreURL, "credential store URL (memory://, file://, redis://, postgres://)")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "credential profile for shared stores")
	fs.StringVar(&cfg.LogLevel, "log-level", config.String("LOG_LEVEL", "warn"), "debug, info, warn or error")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs)
		return 2
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(fs)
		return 2
	}
	outFormat, err := ui.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	logger := runtime.NewLogger("petsocial", cfg.LogLevel, cfg.LogFormat)
	a, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	e := &env{
		app:    a,
		term:   ui.NewTerminal(stdin, stderr, *assumeYes),
		print:  ui.Printer{W: stdout, Format: outFormat},
		out:    stdout,
		errOut: stderr,
	}
	if err := cmd.run(ctx, e, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: petsocial [flags] <command> [command flags]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %-13s %s\n", n, commands[n].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}
