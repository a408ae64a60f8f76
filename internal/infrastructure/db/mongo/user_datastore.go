package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idkeep/userstore/internal/core/domain"
)

const (
	collectionUsers    = "users"
	collectionRoles    = "roles"
	collectionCounters = "counters"
)

// UserBackend persists users and roles in MongoDB. Role membership is
// denormalized as a list of role names on the user document, so
// membership checks and persistence never touch the roles collection.
// Numeric IDs are allocated from a counters collection.
type UserBackend struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	counters *mongo.Collection
}

// NewUserBackend creates a UserBackend over the given database.
func NewUserBackend(db *mongo.Database) *UserBackend {
	return &UserBackend{
		users:    db.Collection(collectionUsers),
		roles:    db.Collection(collectionRoles),
		counters: db.Collection(collectionCounters),
	}
}

// Membership reports the denormalized by-name scheme.
func (b *UserBackend) Membership() domain.RoleMembership {
	return domain.NameMembership{}
}

type userDoc struct {
	ID        int64    `bson:"_id"`
	Email     string   `bson:"email"`
	Username  string   `bson:"username,omitempty"`
	Active    bool     `bson:"active"`
	RoleNames []string `bson:"role_names,omitempty"`
	CreatedAt int64    `bson:"created_at"`
	UpdatedAt int64    `bson:"updated_at"`
}

type roleDoc struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Active:    u.Active,
		RoleNames: u.RoleNames,
		CreatedAt: u.CreatedAt.Unix(),
		UpdatedAt: u.UpdatedAt.Unix(),
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID,
		Email:     d.Email,
		Username:  d.Username,
		Active:    d.Active,
		RoleNames: d.RoleNames,
		CreatedAt: unixToTime(d.CreatedAt),
		UpdatedAt: unixToTime(d.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// nextID allocates the next value of the named counter sequence.
func (b *UserBackend) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := b.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// PutUser inserts a new user or saves an existing one by replacing its
// document, the explicit whole-record save the membership operations
// rely on.
func (b *UserBackend) PutUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if user.ID == 0 {
		id, err := b.nextID(ctx, collectionUsers)
		if err != nil {
			return nil, err
		}
		user.ID = id
		if _, err := b.users.InsertOne(ctx, toUserDoc(user)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrUserExists
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		return user, nil
	}

	if _, err := b.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDoc(user)); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// PutRole inserts a new role or saves an existing one.
func (b *UserBackend) PutRole(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if role.ID == 0 {
		id, err := b.nextID(ctx, collectionRoles)
		if err != nil {
			return nil, err
		}
		role.ID = id
		if _, err := b.roles.InsertOne(ctx, roleDoc{ID: role.ID, Name: role.Name, Description: role.Description}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrRoleExists
			}
			return nil, fmt.Errorf("insert role: %w", err)
		}
		return role, nil
	}

	if _, err := b.roles.ReplaceOne(ctx, bson.M{"_id": role.ID}, roleDoc{ID: role.ID, Name: role.Name, Description: role.Description}); err != nil {
		return nil, fmt.Errorf("save role: %w", err)
	}
	return role, nil
}

// DeleteUser removes the user's document.
func (b *UserBackend) DeleteUser(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := b.users.DeleteOne(ctx, bson.M{"_id": user.ID}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Commit is a no-op; every write is flushed as it happens.
func (b *UserBackend) Commit(context.Context) error { return nil }

// GetUser applies the tiered lookup: numeric ID first, then exact email
// match, then exact username match. Textual input arrives lowercased
// from domain.Ident and is compared against the stored value as written.
func (b *UserBackend) GetUser(ctx context.Context, ident domain.Ident) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if id, ok := ident.ID(); ok {
		return b.findOneUser(ctx, bson.M{"_id": id})
	}

	text, _ := ident.Text()
	user, err := b.findOneUser(ctx, bson.M{"email": text})
	if err != nil || user != nil {
		return user, err
	}
	return b.findOneUser(ctx, bson.M{"username": text})
}

// FindUser honors ID before email and has no username tier.
func (b *UserBackend) FindUser(ctx context.Context, filter domain.UserFilter) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if filter.ID != 0 {
		return b.findOneUser(ctx, bson.M{"_id": filter.ID})
	}
	if filter.Email != "" {
		return b.findOneUser(ctx, bson.M{"email": strings.ToLower(filter.Email)})
	}
	return nil, nil
}

func (b *UserBackend) findOneUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := b.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// FindRole returns the role with the exact given name, or nil.
func (b *UserBackend) FindRole(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := b.roles.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: doc.ID, Name: doc.Name, Description: doc.Description}, nil
}

// Roles enumerates every stored role.
func (b *UserBackend) Roles(ctx context.Context) ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := b.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.Role
	for cursor.Next(ctx) {
		var doc roleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		out = append(out, domain.Role{ID: doc.ID, Name: doc.Name, Description: doc.Description})
	}
	return out, cursor.Err()
}

// EnsureIndexes creates the unique indexes backing the email and role
// name constraints.
func (b *UserBackend) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := b.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	_, err = b.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("roles indexes: %w", err)
	}
	return nil
}
