package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

// UserRepository implements ports.UserRepository on Postgres. Uniqueness is
// enforced by the unique indexes on email and username.
type UserRepository struct {
	db *gorm.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	row := userModelFromDomain(u)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []userModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

// Update writes changes in one UPDATE statement and reloads the row.
func (r *UserRepository) Update(ctx context.Context, id int64, c domain.UserChanges) (*domain.User, error) {
	cols := map[string]any{}
	if c.FirstName != nil {
		cols["first_name"] = *c.FirstName
	}
	if c.LastName != nil {
		cols["last_name"] = *c.LastName
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.PasswordHash != nil {
		cols["password_hash"] = *c.PasswordHash
	}
	if c.Role != nil {
		cols["role"] = c.Role.String()
	}
	if c.IsActive != nil {
		cols["is_active"] = *c.IsActive
	}
	if !c.UpdatedAt.IsZero() {
		cols["updated_at"] = c.UpdatedAt.UTC()
	}
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Updates(cols)
	switch {
	case res.Error != nil && isUniqueViolation(res.Error):
		return nil, domain.ErrEmailTaken
	case res.Error != nil:
		return nil, fmt.Errorf("update user: %w", res.Error)
	case res.RowsAffected == 0:
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}
