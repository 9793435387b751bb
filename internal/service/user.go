package service

import (
	"context"
	"errors"
	"time"

	"github.com/adityaprs/klinik-auth/internal/hash"
	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/models"
	"github.com/adityaprs/klinik-auth/internal/repo"
)

type UserService struct {
	Store       UserStore
	Producer    Publisher
	EventsTopic string
	Indexer     ProfileIndexer
}

type CreateUserInput struct {
	NIK      string `json:"nik"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "user.create")

	if in.NIK == "" || in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, ErrValidation
	}

	_, err := s.Store.FindByEmailOrNIK(ctx, in.Email, in.NIK)
	if err == nil {
		l.Warn("create_conflict", "status", 409, "nik", in.NIK)
		return nil, ErrConflict
	}
	if !errors.Is(err, repo.ErrNotFound) {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, err
	}

	pwHash, err := hash.HashSecret(in.Password)
	if err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, err
	}

	user := &models.User{
		NIK:          in.NIK,
		Name:         in.Name,
		Email:        &in.Email,
		PasswordHash: &pwHash,
		Role:         models.RolePasien,
	}
	if err := s.Store.Create(ctx, user); err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, err
	}

	profile := user.Profile()
	s.publish(ctx, user.ID, map[string]any{
		"type":   "user_registered",
		"userId": user.ID,
		"nik":    user.NIK,
	})
	s.index(ctx, profile)
	l.Info("user_created", "user_id", user.ID)
	return profile, nil
}

// CreateFromOCR registers an account extracted by the document-recognition
// pipeline. No secret is involved; the account can only log in through the
// NIK+name path.
func (s *UserService) CreateFromOCR(ctx context.Context, nik, name string) (*models.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "user.create_from_ocr")

	if nik == "" || name == "" {
		return nil, ErrValidation
	}

	if existing, err := s.Store.FindByNIK(ctx, nik); err == nil {
		l.Info("ocr_user_already_registered", "user_id", existing.ID)
		return existing.Profile(), nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		NIK:  nik,
		Name: name,
		Role: models.RolePasien,
	}
	if err := s.Store.Create(ctx, user); err != nil {
		l.Error("ocr_create_failed", "error", err)
		return nil, err
	}

	profile := user.Profile()
	s.publish(ctx, user.ID, map[string]any{
		"type":   "user_registered",
		"userId": user.ID,
		"nik":    user.NIK,
		"source": "ocr",
	})
	s.index(ctx, profile)
	l.Info("ocr_user_created", "user_id", user.ID)
	return profile, nil
}

func (s *UserService) FindByNIK(ctx context.Context, nik string) (*models.Profile, error) {
	user, err := s.Store.FindByNIK(ctx, nik)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user.Profile(), nil
}

// UpdateRole changes an account's role. Unlike the login paths this is an
// administrative mutation, so a missing account surfaces as NotFound.
func (s *UserService) UpdateRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_role")

	switch role {
	case models.RolePasien, models.RoleOperator, models.RoleAdminFaskes:
	default:
		return nil, ErrValidation
	}

	user, err := s.Store.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		l.Error("update_role_failed", "status", 500, "error", err)
		return nil, err
	}

	profile := user.Profile()
	s.index(ctx, profile)
	l.Info("role_updated", "user_id", id, "role", role)
	return profile, nil
}

func (s *UserService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, s.EventsTopic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func (s *UserService) index(ctx context.Context, p *models.Profile) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProfile(ctx, p); err != nil {
		logging.FromContext(ctx).Error("profile index error", "error", err, "user_id", p.ID)
	}
}
