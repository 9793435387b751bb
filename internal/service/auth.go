package service

import (
	"context"
	"errors"
	"time"

	"github.com/adityaprs/klinik-auth/internal/hash"
	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/metrics"
	"github.com/adityaprs/klinik-auth/internal/models"
	"github.com/adityaprs/klinik-auth/internal/repo"
	"github.com/adityaprs/klinik-auth/internal/tokens"
)

const (
	PathAdmin = "admin"
	PathUser  = "user"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	Store         UserStore
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	Metrics     *metrics.Collector
	Producer    Publisher
	EventsTopic string
}

// validateCredentials checks the secret against the stored hash. The
// returned cause feeds metrics only; every failure is ErrAccessDenied.
func (s *AuthService) validateCredentials(ctx context.Context, email, secret string) (*models.User, string, error) {
	user, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, metrics.CauseNotFound, ErrAccessDenied
		}
		return nil, "", err
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, metrics.CauseNoCredential, ErrAccessDenied
	}
	if !hash.CheckSecret(*user.PasswordHash, secret) {
		return nil, metrics.CauseBadSecret, ErrAccessDenied
	}
	return user, "", nil
}

// ValidateUser returns the account projection when the secret matches,
// regardless of role.
func (s *AuthService) ValidateUser(ctx context.Context, email, secret string) (*models.Profile, error) {
	user, _, err := s.validateCredentials(ctx, email, secret)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// ValidateAdmin additionally rejects PASIEN accounts. The role check runs
// only after the secret matched so a rejected patient costs the same time
// as a wrong password.
func (s *AuthService) ValidateAdmin(ctx context.Context, email, secret string) (*models.Profile, error) {
	user, _, err := s.validateCredentials(ctx, email, secret)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RolePasien {
		return nil, ErrAccessDenied
	}
	return user.Profile(), nil
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, secret string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_admin")

	user, cause, err := s.validateCredentials(ctx, email, secret)
	if err == nil && user.Role == models.RolePasien {
		user, cause, err = nil, metrics.CauseRoleForbidden, ErrAccessDenied
	}
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			s.recordDenied(PathAdmin, cause)
			l.Warn("login_denied", "status", 401, "cause", cause)
			return nil, ErrAccessDenied
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	pair, err := s.issueTokenPair(ctx, user.Profile())
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.recordSuccess(PathAdmin)
	s.publish(ctx, user.ID, map[string]any{
		"type":   "user_logged_in",
		"userId": user.ID,
		"role":   user.Role,
	})
	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

// LoginUser authenticates with a NIK and display name instead of a
// secret; accounts on this path come from the document-recognition
// pipeline. The name comparison is case-insensitive.
func (s *AuthService) LoginUser(ctx context.Context, nik, name string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login_user")

	user, err := s.Store.FindByNIKAndName(ctx, nik, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.recordDenied(PathUser, metrics.CauseIdentityMismatch)
			l.Warn("login_denied", "status", 401, "cause", metrics.CauseIdentityMismatch)
			return nil, ErrAccessDenied
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	pair, err := s.issueTokenPair(ctx, user.Profile())
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.recordSuccess(PathUser)
	s.publish(ctx, user.ID, map[string]any{
		"type":   "user_logged_in",
		"userId": user.ID,
		"role":   user.Role,
	})
	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

// issueTokenPair signs both tokens and persists the refresh-token hash,
// overwriting whatever was stored before. Only one refresh token per
// account is ever valid.
func (s *AuthService) issueTokenPair(ctx context.Context, p *models.Profile) (*TokenPair, error) {
	accessToken, err := tokens.IssueAccess(p, s.JWTSecret, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := tokens.IssueRefresh(p.ID, s.RefreshSecret, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	tokenHash, err := hash.HashToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateRefreshTokenHash(ctx, p.ID, &tokenHash); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh issues a new access token when the presented refresh token
// hashes to the stored value. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, userID, rawRefreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	user, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.recordRefresh("denied")
			l.Warn("refresh_denied", "status", 401, "cause", metrics.CauseNotFound)
			return "", ErrAccessDenied
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}

	if user.RefreshTokenHash == nil || *user.RefreshTokenHash == "" ||
		!hash.CheckToken(*user.RefreshTokenHash, rawRefreshToken) {
		s.recordRefresh("denied")
		l.Warn("refresh_denied", "status", 401, "cause", metrics.CauseTokenMismatch)
		return "", ErrAccessDenied
	}

	accessToken, err := tokens.IssueAccess(user.Profile(), s.JWTSecret, s.AccessTTL)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}

	s.recordRefresh("success")
	l.Info("refresh_successful", "user_id", userID)
	return accessToken, nil
}

// Logout clears the stored refresh-token hash. Clearing an already empty
// hash is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Store.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	if s.Metrics != nil {
		s.Metrics.RecordLogout()
	}
	s.publish(ctx, userID, map[string]any{
		"type":   "user_logged_out",
		"userId": userID,
	})
	l.Info("logout_successful", "user_id", userID)
	return nil
}

func (s *AuthService) recordSuccess(path string) {
	if s.Metrics != nil {
		s.Metrics.RecordLoginSuccess(path)
	}
}

func (s *AuthService) recordDenied(path, cause string) {
	if s.Metrics != nil {
		s.Metrics.RecordLoginDenied(path, cause)
	}
}

func (s *AuthService) recordRefresh(result string) {
	if s.Metrics != nil {
		s.Metrics.RecordRefresh(result)
	}
}

func (s *AuthService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, s.EventsTopic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
