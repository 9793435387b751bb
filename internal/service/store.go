package service

import (
	"context"

	"github.com/adityaprs/klinik-auth/internal/models"
)

// UserStore is the persistence contract the services consume. GormRepo is
// the production implementation.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByNIK(ctx context.Context, nik string) (*models.User, error)
	FindByNIKAndName(ctx context.Context, nik, name string) (*models.User, error)
	FindByEmailOrNIK(ctx context.Context, email, nik string) (*models.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id string, tokenHash *string) error
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Publisher pushes lifecycle events onto the bus. A nil Publisher disables
// publishing; a failed publish is logged and never fails the request.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// ProfileIndexer mirrors profiles into the search index. Nil disables it.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, p *models.Profile) error
}
