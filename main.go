package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"library-search/internal/config"
	"library-search/internal/ui"
	"library-search/library"
	"library-search/pkg/logger"
)

// app bundles what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	store  *library.CredentialStore
	mgr    *library.LibraryManager
	search *ui.SearchPanel
	out    io.Writer
}

type rootFlags struct {
	configPath string
	baseURL    string
	stateDB    string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:           "libsearch",
		Short:         "Search the university library catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd.OutOrStdout(), flags)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context(), cmd.InOrStdin())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default "+config.Path()+")")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend base URL")
	pf.StringVar(&flags.stateDB, "state-db", "", "path of the local session database")
	pf.StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn or error")

	root.AddCommand(
		shellCmd(a),
		loginCmd(a),
		registerCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		campusCmd(a),
		searchCmd(a),
		historyCmd(a),
		adminCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context, out io.Writer, flags rootFlags) error {
	cfg, err := config.Load(ctx, flags.configPath)
	if err != nil {
		return err
	}
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.stateDB != "" {
		cfg.StateDB = flags.stateDB
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	a.cfg = cfg
	a.out = out

	logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	client, err := library.NewClient(cfg.BaseURL, nil)
	if err != nil {
		return err
	}
	store, err := library.OpenCredentialStore(cfg.StateDB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store = store
	a.mgr = library.NewLibraryManager(client, store)
	a.search = ui.NewSearchPanel(a.mgr, cfg.DefaultLocation)

	if err := a.mgr.Start(ctx); err != nil {
		if !errors.Is(err, library.ErrInvalidSession) {
			return err
		}
		fmt.Fprintln(out, "Saved session expired; please log in again.")
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
