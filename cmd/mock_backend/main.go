// Command mock_backend serves the in-memory catalog backend for local
// development against libsearch.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"library-search/internal/backendtest"
	"library-search/library"
	"library-search/pkg/logger"
)

type serverConfig struct {
	Addr     string        `env:"MOCK_BACKEND_ADDR, default=:5000"`
	Secret   string        `env:"MOCK_BACKEND_SECRET, default=dev-secret"`
	TokenTTL time.Duration `env:"MOCK_BACKEND_TOKEN_TTL, default=24h"`
	LogLevel string        `env:"MOCK_BACKEND_LOG_LEVEL, default=info"`
}

// seedFile lists accounts created at startup and, optionally, a catalog
// replacing the built-in sample.
type seedFile struct {
	Accounts []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Campus   string `yaml:"campus"`
		Role     string `yaml:"role"`
	} `yaml:"accounts"`
	Catalog []seedRecord `yaml:"catalog"`
}

type seedRecord struct {
	Title     string `yaml:"title"`
	Author    string `yaml:"author"`
	Publisher string `yaml:"publisher"`
	Year      string `yaml:"year"`
	Holdings  []struct {
		CallNumber string `yaml:"call_number"`
		Location   string `yaml:"location"`
		Status     string `yaml:"status"`
	} `yaml:"holdings"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var seedPath string
	cmd := &cobra.Command{
		Use:          "mock_backend",
		Short:        "Serve a fake library catalog backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), seedPath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML file with accounts and catalog records")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, seedPath string) error {
	var cfg serverConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})
	log := logger.Get()

	seed, err := loadSeed(seedPath)
	if err != nil {
		return err
	}

	srv := backendtest.New(backendtest.Options{
		Secret:   cfg.Secret,
		TokenTTL: cfg.TokenTTL,
		Catalog:  seed.catalog(),
	})
	if len(seed.Accounts) == 0 {
		if _, err := srv.AddUser("admin", "admin123", "", backendtest.RoleAdmin); err != nil {
			return err
		}
		log.Info().Msg("created default admin account admin/admin123")
	}
	for _, acc := range seed.Accounts {
		role := acc.Role
		if role == "" {
			role = backendtest.RoleReader
		}
		if _, err := srv.AddUser(acc.Username, acc.Password, acc.Campus, role); err != nil {
			return fmt.Errorf("seed account %q: %w", acc.Username, err)
		}
		log.Info().Str("username", acc.Username).Str("role", role).Msg("seeded account")
	}

	e := srv.Echo()
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("mock backend listening")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}

func loadSeed(path string) (*seedFile, error) {
	seed := &seedFile{}
	if path == "" {
		return seed, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return seed, nil
}

// catalog converts the seed records, or returns nil to keep the sample set.
func (s *seedFile) catalog() []library.SearchResult {
	if len(s.Catalog) == 0 {
		return nil
	}
	out := make([]library.SearchResult, 0, len(s.Catalog))
	for _, r := range s.Catalog {
		rec := library.SearchResult{
			Title:     r.Title,
			Author:    r.Author,
			Publisher: r.Publisher,
			Year:      r.Year,
		}
		for _, h := range r.Holdings {
			rec.Holdings = append(rec.Holdings, library.Holding{
				CallNumber: h.CallNumber,
				Location:   h.Location,
				Status:     h.Status,
			})
		}
		out = append(out, rec)
	}
	return out
}
