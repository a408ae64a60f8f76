package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/idkeep/userstore/internal/core/domain"
)

type userRecord struct {
	ID        int64        `gorm:"primaryKey"`
	Email     string       `gorm:"uniqueIndex;not null"`
	Username  string       `gorm:"index"`
	Active    bool         `gorm:"default:true"`
	Roles     []roleRecord `gorm:"many2many:user_roles"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type roleRecord struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
}

func (roleRecord) TableName() string { return "roles" }

func toUserRecord(u *domain.User) userRecord {
	rec := userRecord{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for _, r := range u.Roles {
		rec.Roles = append(rec.Roles, roleRecord{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return rec
}

func (rec userRecord) toDomain() *domain.User {
	u := &domain.User{
		ID:        rec.ID,
		Email:     rec.Email,
		Username:  rec.Username,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	for _, r := range rec.Roles {
		u.Roles = append(u.Roles, domain.Role{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return u
}

// UserBackend persists users and roles in PostgreSQL with membership
// held in the user_roles join table.
type UserBackend struct {
	db *gorm.DB
}

// NewUserBackend creates a UserBackend over the given GORM session.
func NewUserBackend(db *gorm.DB) *UserBackend {
	return &UserBackend{db: db}
}

// Membership reports the by-reference scheme.
func (b *UserBackend) Membership() domain.RoleMembership {
	return domain.ReferenceMembership{}
}

// PutUser inserts a new user or saves an existing one. On save the
// join-table rows are replaced so removed memberships are dropped.
func (b *UserBackend) PutUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	rec := toUserRecord(user)
	tx := b.db.WithContext(ctx)

	if user.ID == 0 {
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, domain.ErrUserExists
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		user.ID = rec.ID
		return user, nil
	}

	if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	if err := tx.Model(&rec).Association("Roles").Replace(rec.Roles); err != nil {
		return nil, fmt.Errorf("save user roles: %w", err)
	}
	return user, nil
}

// PutRole inserts a new role or saves an existing one.
func (b *UserBackend) PutRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	rec := roleRecord{ID: role.ID, Name: role.Name, Description: role.Description}
	tx := b.db.WithContext(ctx)

	if role.ID == 0 {
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, domain.ErrRoleExists
			}
			return nil, fmt.Errorf("insert role: %w", err)
		}
		role.ID = rec.ID
		return role, nil
	}

	if err := tx.Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("save role: %w", err)
	}
	return role, nil
}

// DeleteUser removes the user row along with its join-table rows.
func (b *UserBackend) DeleteUser(ctx context.Context, user *domain.User) error {
	rec := userRecord{ID: user.ID}
	if err := b.db.WithContext(ctx).Select(clause.Associations).Delete(&rec).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Commit is a no-op; each operation runs in its own transaction.
func (b *UserBackend) Commit(context.Context) error { return nil }

// GetUser applies the tiered lookup: primary key first, then exact
// email match, then exact username match, with textual input lowercased
// by domain.Ident and compared against the stored value as written.
func (b *UserBackend) GetUser(ctx context.Context, ident domain.Ident) (*domain.User, error) {
	if id, ok := ident.ID(); ok {
		return b.findOneUser(ctx, "id = ?", id)
	}

	text, _ := ident.Text()
	user, err := b.findOneUser(ctx, "email = ?", text)
	if err != nil || user != nil {
		return user, err
	}
	return b.findOneUser(ctx, "username = ?", text)
}

// FindUser honors ID before email and has no username tier.
func (b *UserBackend) FindUser(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	if filter.ID != 0 {
		return b.findOneUser(ctx, "id = ?", filter.ID)
	}
	if filter.Email != "" {
		return b.findOneUser(ctx, "email = ?", strings.ToLower(filter.Email))
	}
	return nil, nil
}

func (b *UserBackend) findOneUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var rec userRecord
	err := b.db.WithContext(ctx).Preload("Roles").Where(query, arg).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return rec.toDomain(), nil
}

// FindRole returns the role with the exact given name, or nil.
func (b *UserBackend) FindRole(ctx context.Context, name string) (*domain.Role, error) {
	var rec roleRecord
	err := b.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: rec.ID, Name: rec.Name, Description: rec.Description}, nil
}

// Roles enumerates every stored role.
func (b *UserBackend) Roles(ctx context.Context) ([]domain.Role, error) {
	var recs []roleRecord
	if err := b.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make([]domain.Role, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Role{ID: rec.ID, Name: rec.Name, Description: rec.Description})
	}
	return out, nil
}
