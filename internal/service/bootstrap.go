package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/adityaprs/klinik-auth/internal/hash"
	"github.com/adityaprs/klinik-auth/internal/logging"
	"github.com/adityaprs/klinik-auth/internal/models"
	"github.com/adityaprs/klinik-auth/internal/repo"
)

// AdminBootstrap ensures an administrator account exists at startup. It
// runs once before the server accepts requests and is not safe for
// concurrent invocation: the read-then-write is serialized only by the
// store itself.
type AdminBootstrap struct {
	Store    UserStore
	Email    string
	Password string
	Name     string
	Disabled bool

	Producer    Publisher
	EventsTopic string
}

// Run never returns an error. A failed seed degrades the deployment (no
// guaranteed admin account) but must not stop the service from starting.
func (b *AdminBootstrap) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "admin_bootstrap")

	if b.Disabled {
		l.Info("admin seeding disabled via DISABLE_ADMIN_SEED, skipping")
		return
	}

	if err := b.seed(ctx); err != nil {
		l.Error("admin seeding failed", "error", err)
	}
}

func (b *AdminBootstrap) seed(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "admin_bootstrap")

	existing, err := b.Store.FindByEmail(ctx, b.Email)
	if err == nil {
		if existing.Role == models.RoleAdminFaskes {
			return nil
		}
		// Fix the role only; credentials stay untouched.
		if _, err := b.Store.UpdateRole(ctx, existing.ID, models.RoleAdminFaskes); err != nil {
			return err
		}
		l.Info("ensured admin role", "email", b.Email)
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	pwHash, err := hash.HashSecret(b.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		// Placeholder NIK, unique per seeding run.
		NIK:          "ADM-" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:         b.Name,
		Email:        &b.Email,
		PasswordHash: &pwHash,
		Role:         models.RoleAdminFaskes,
	}
	if err := b.Store.Create(ctx, admin); err != nil {
		return err
	}

	if b.Producer != nil {
		if err := b.Producer.PublishEvent(ctx, b.EventsTopic, admin.ID, map[string]any{
			"type":   "admin_seeded",
			"userId": admin.ID,
		}); err != nil {
			l.Error("kafka publish error", "error", err)
		}
	}

	l.Info("seeded default admin user", "email", b.Email)
	return nil
}
