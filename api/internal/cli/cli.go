// Package cli is the shared skeleton of the per-service demo binaries: load
// config, build a logger, pick a sub-command, run it under a SIGINT-aware
// context and map errors to exit codes.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/config"
	"azure-playground/api/internal/logging"
	"azure-playground/api/internal/store"
)

// Env is what every command gets.
type Env struct {
	Cfg     *config.Config
	Log     *logrus.Entry
	Out     io.Writer
	Journal *store.Journal
}

// Track journals fn under the binary's service name.
func (e *Env) Track(ctx context.Context, service, op, input string, fn func(context.Context) (string, error)) (string, error) {
	return e.Journal.Track(ctx, service, op, input, fn)
}

type Command struct {
	Name  string
	Usage string
	// Flags registers the command's flags; it may be nil.
	Flags func(fs *flag.FlagSet)
	Run   func(ctx context.Context, env *Env, fs *flag.FlagSet) error
}

type App struct {
	Name     string
	Commands []Command
}

func (a *App) usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <command> [flags]\n\ncommands:\n", a.Name)
	cmds := append([]Command(nil), a.Commands...)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-22s %s\n", c.Name, c.Usage)
	}
}

func (a *App) find(name string) (Command, bool) {
	for _, c := range a.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run dispatches args[0] and returns the process exit code. Errors are
// printed to stderr in the form the vendor reported them.
func (a *App) Run(ctx context.Context, env *Env, args []string, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" || args[0] == "--help" {
		a.usage(stderr)
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}
	cmd, ok := a.find(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		a.usage(stderr)
		return ExitUsage
	}

	fs := flag.NewFlagSet(a.Name+" "+cmd.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	if cmd.Flags != nil {
		cmd.Flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if err := cmd.Run(ctx, env, fs); err != nil {
		fmt.Fprintln(stderr, Describe(err))
		return ExitError
	}
	return ExitOK
}

// Describe renders an error the way the demos report them.
func Describe(err error) string {
	var re *azrest.ResponseError
	var me *config.MissingError
	switch {
	case errors.As(err, &re):
		if re.Code != "" || re.Message != "" {
			return fmt.Sprintf("Error: %s - %s (HTTP %d)", re.Code, re.Message, re.StatusCode)
		}
		return "Error: " + re.Error()
	case errors.As(err, &me):
		return "Configuration error: " + me.Error()
	case errors.Is(err, context.Canceled):
		return "Interrupted."
	default:
		return "Error: " + err.Error()
	}
}

// Main is the entry point of each binary.
func Main(app *App) {
	os.Exit(run(app))
}

func run(app *App) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}
	log := logging.New(cfg.LogLevel, app.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &Env{Cfg: cfg, Log: log, Out: os.Stdout}
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			log.WithError(err).Warn("journal disabled")
		} else {
			defer db.Close()
			env.Journal = store.NewJournal(db, "cli", log)
		}
	}
	return app.Run(ctx, env, os.Args[1:], os.Stderr)
}

// Arg returns the i-th positional argument or def.
func Arg(fs *flag.FlagSet, i int, def string) string {
	if v := strings.TrimSpace(fs.Arg(i)); v != "" {
		return v
	}
	return def
}

// Rest joins the positional arguments from i on, or returns def.
func Rest(fs *flag.FlagSet, i int, def string) string {
	if fs.NArg() <= i {
		return def
	}
	return strings.Join(fs.Args()[i:], " ")
}

// PrintJSON pretty-prints v, falling back to %+v when it does not marshal.
func PrintJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%+v\n", v)
		return
	}
	fmt.Fprintln(w, string(b))
}

// Lines splits a comma separated flag value, dropping blanks.
func Lines(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
