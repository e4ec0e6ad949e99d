package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spendtrack/internal/apiclient"
	"spendtrack/internal/config"
	"spendtrack/internal/log"
	"spendtrack/internal/session"
)

var errNotLoggedIn = errors.New("not logged in, run 'spendtrack login' first")

// App carries what every command needs: configuration, the logger and
// the terminal streams.
type App struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *log.Logger

	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
}

// NewRootCommand builds the spendtrack command tree writing to out and
// errOut and reading prompts from in.
func NewRootCommand(out, errOut io.Writer, in io.Reader) *cobra.Command {
	app := &App{
		v:      config.NewViper(),
		out:    out,
		errOut: errOut,
		in:     bufio.NewReader(in),
	}

	root := &cobra.Command{
		Use:   "spendtrack",
		Short: "Track expenses through the expenses API",
		Long: `spendtrack serves the expense tracking web front end and offers the
same operations from the terminal.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.init,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(in)

	f := root.PersistentFlags()
	f.StringVar(&app.cfgFile, "config", "", "config file (yaml, toml or json)")
	f.String("api-url", "", "expenses API base URL")
	f.String("credentials", "", "credentials file (default: user config dir)")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	_ = app.v.BindPFlag(config.KeyAPIBaseURL, f.Lookup("api-url"))
	_ = app.v.BindPFlag(config.KeyCredentialsFile, f.Lookup("credentials"))
	_ = app.v.BindPFlag(config.KeyLogLevel, f.Lookup("log-level"))

	root.AddCommand(app.serveCmd())
	root.AddCommand(app.loginCmd())
	root.AddCommand(app.logoutCmd())
	root.AddCommand(app.expensesCmd())
	root.AddCommand(app.categoriesCmd())
	root.AddCommand(app.reportCmd())
	root.AddCommand(app.activityCmd())
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand(os.Stdout, os.Stderr, os.Stdin)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(Describe(err)))
		return 1
	}
	return 0
}

// Describe turns a command error into the text shown to the user. API and
// validation failures use their user-facing message.
func Describe(err error) string {
	if apiclient.ErrorType(err) != log.ErrorTypeInternal {
		return apiclient.UserMessage(err)
	}
	return err.Error()
}

func (a *App) init(_ *cobra.Command, _ []string) error {
	LoadEnvFile()
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := LoadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = NewLogger(cfg, a.errOut)
	return nil
}

func (a *App) client() (*apiclient.Client, error) {
	return apiclient.New(a.cfg.APIBaseURL,
		apiclient.WithTimeout(a.cfg.APITimeout),
		apiclient.WithAuthScheme(a.cfg.AuthScheme),
		apiclient.WithLogger(a.logger),
	)
}

func (a *App) store() (session.FileStore, error) {
	path := a.cfg.CredentialsFile
	if path == "" {
		var err error
		if path, err = session.DefaultCredentialsPath(); err != nil {
			return session.FileStore{}, err
		}
	}
	return session.FileStore{Path: path}, nil
}

// session opens the stored credential. A credential the API rejects is
// removed from disk by the store's listener.
func (a *App) session() (*session.Session, error) {
	st, err := a.store()
	if err != nil {
		return nil, err
	}
	s, err := st.Open()
	if err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, errNotLoggedIn
	}
	return s, nil
}

// authedClient is the common preamble of commands that need a credential.
func (a *App) authedClient() (*apiclient.Client, *session.Session, error) {
	s, err := a.session()
	if err != nil {
		return nil, nil, err
	}
	c, err := a.client()
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, FormatPrompt(label+":"))
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm asks a y/N question; anything but y or yes is a no.
func (a *App) confirm(question string) bool {
	switch strings.ToLower(a.prompt(question + " (y/N)")) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
