package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"library-search/internal/ui"
	"library-search/library"
)

func loginCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd.InOrStdin(), a.out)
			panel := &ui.AuthPanel{Mode: library.ModeLogin, Username: username}
			if err := fillCredentials(p, panel); err != nil {
				return err
			}
			if err := panel.Submit(cmd.Context(), a.mgr); err != nil {
				return err
			}
			ui.RenderSession(a.out, a.mgr.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var username, campus string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd.InOrStdin(), a.out)
			panel := &ui.AuthPanel{Mode: library.ModeRegister, Username: username, Campus: campus}
			if err := fillCredentials(p, panel); err != nil {
				return err
			}
			if err := panel.Submit(cmd.Context(), a.mgr); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Account created.")
			ui.RenderSession(a.out, a.mgr.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVar(&campus, "campus", "", "home campus (optional)")
	return cmd
}

// fillCredentials prompts for whatever the panel is still missing.
func fillCredentials(p *prompter, panel *ui.AuthPanel) error {
	if panel.Username == "" {
		username, ok := p.line("Username: ")
		if !ok {
			return errors.New("no username given")
		}
		panel.Username = username
	}
	password, err := p.password("Password: ")
	if err != nil {
		return err
	}
	panel.Password = password
	return panel.Validate()
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := a.mgr.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			ui.RenderSession(a.out, a.mgr.Snapshot())
			return nil
		},
	}
}

func campusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "campus <name>",
		Short:     "Set the home campus",
		Args:      cobra.ExactArgs(1),
		ValidArgs: library.Campuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.SetCampus(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Campus set to %s.\n", args[0])
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("location") {
				if err := a.search.SetLocation(location); err != nil {
					return err
				}
			}
			a.search.Text = args[0]
			if err := a.search.Submit(cmd.Context()); err != nil {
				return err
			}
			ui.RenderResults(a.out, a.mgr.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "campus filter, or 'all'")
	return cmd
}

func historyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List search history",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.mgr.Token() == "" {
				return library.ErrNotLoggedIn
			}
			ui.RenderHistory(a.out, a.mgr.Snapshot().History)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry ID %q", args[0])
			}
			if err := a.mgr.DeleteHistory(cmd.Context(), id); err != nil {
				return err
			}
			ui.RenderHistory(a.out, a.mgr.Snapshot().History)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.mgr.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Search history cleared.")
			return nil
		},
	}

	pick := &cobra.Command{
		Use:   "pick",
		Short: "Fuzzy-pick a past search and run it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := ui.PickHistory(a.mgr.Snapshot().History)
			if err != nil || entry == nil {
				return err
			}
			if err := a.mgr.RerunHistory(cmd.Context(), *entry); err != nil {
				return err
			}
			ui.RenderResults(a.out, a.mgr.Snapshot())
			return nil
		},
	}

	cmd.AddCommand(rm, clearCmd, pick)
	return cmd
}

func adminCmd(a *app) *cobra.Command {
	var users bool
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			panel := &ui.AdminPanel{Dashboard: a.mgr.OpenAdmin(cmd.Context())}
			defer a.mgr.CloseAdmin()
			if users {
				panel.SetTab(ui.TabUsers)
			}
			panel.Render(a.out)
			return panel.Dashboard.Err
		},
	}
	cmd.Flags().BoolVar(&users, "users", false, "show the user roster tab")
	return cmd
}
