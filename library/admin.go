package library

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"

	"library-search/pkg/logger"
)

// RoleAdmin is the role claim value granting dashboard access.
const RoleAdmin = "admin"

// TokenInfo is what the client can read from a bearer token without the
// signing key. None of it is trusted for anything but display and the
// local admin pre-check.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// InspectToken decodes the claims of a JWT bearer token without verifying
// its signature. Opaque (non-JWT) tokens yield ok=false.
func InspectToken(token string) (info TokenInfo, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	return info, true
}

// AdminDashboard is the loaded state of the administrative panel. It is
// returned only once every fetch has finished.
type AdminDashboard struct {
	Err        error
	Statistics *Statistics
	Users      []AccountRecord
}

// Authorized reports whether the gate passed and data loaded.
func (d *AdminDashboard) Authorized() bool { return d.Err == nil }

// LoadAdminDashboard gates on the account being an admin, then fetches the
// statistics and the user roster concurrently. It returns only once both
// fetches have finished.
//
// When the token carries a role claim, a non-admin role is rejected without
// a request. Otherwise a successful statistics probe is taken as proof.
func LoadAdminDashboard(ctx context.Context, api Backend, token string) *AdminDashboard {
	d := &AdminDashboard{}

	if token == "" {
		d.Err = ErrNotLoggedIn
		return d
	}
	if info, ok := InspectToken(token); ok && info.Role != "" && info.Role != RoleAdmin {
		d.Err = ErrNotAuthorized
		return d
	}
	if _, err := api.Statistics(ctx, token); err != nil {
		log := logger.Get()
		log.Info().Err(err).Msg("admin probe rejected")
		d.Err = fmt.Errorf("%w: %v", ErrNotAuthorized, err)
		return d
	}

	var (
		g     errgroup.Group
		stats *Statistics
		users []AccountRecord
	)
	g.Go(func() error {
		s, err := api.Statistics(ctx, token)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		u, err := api.Users(ctx, token)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		users = u
		return nil
	})
	err := g.Wait()

	d.Statistics = stats
	d.Users = users
	if err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("load admin dashboard")
		d.Err = fmt.Errorf("load admin data: %w", err)
	}
	return d
}
