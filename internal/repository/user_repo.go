package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/db"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository provides data access methods for the User model.
// It covers accounts (sign-up, sign-in lookup) and public profiles.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new account.
//
// Behavior:
//   - Email is normalised to lower case before insert.
//   - A duplicate email returns ErrEmailTaken (checked up front, and again
//     through the unique index for concurrent sign-ups).
//
// Example:
//
//	repo.Create(ctx, &db.User{ID: uuid.NewString(), Email: "a@b.c", PasswordHash: h})
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	u.Email = normaliseEmail(u.Email)

	var count int64
	if err := r.db.WithContext(ctx).Model(&db.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}

	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// GetByID returns the user with the given id, or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user registered with email, or gorm.ErrRecordNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", normaliseEmail(email)).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile overwrites name, description and skills of an existing user.
// Returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, description string, skills []string) (*db.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name = name
	u.Description = description
	u.Skills = skills
	if err := r.db.WithContext(ctx).Model(u).Select("name", "description", "skills", "updated_at").Updates(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ListOthers returns one page of users other than excludeID with a complete
// profile, most recently updated first. offset and limit count raw rows, so
// more reports whether rows remain past this page even when incomplete
// profiles were filtered out of it.
func (r *UserRepository) ListOthers(ctx context.Context, excludeID string, offset, limit int) (users []db.User, more bool, err error) {
	err = r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("name <> '' AND description <> ''").
		Order("updated_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, false, err
	}
	more = len(users) == limit
	return completeOnly(users), more, nil
}

// SearchBySkill returns users other than excludeID having a skill that
// contains query, case-insensitively.
//
// Behavior:
//   - The SQL filter is a coarse LIKE over the serialised skills column
//     (wildcards in query only widen it).
//   - Results are re-checked per skill so a match across two skills, or on
//     JSON punctuation, is not returned.
func (r *UserRepository) SearchBySkill(ctx context.Context, excludeID, query string, limit int) ([]db.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var users []db.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("LOWER(skills) LIKE ?", "%"+q+"%").
		Order("name ASC, id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	out := make([]db.User, 0, len(users))
	for _, u := range users {
		for _, s := range u.Skills {
			if strings.Contains(strings.ToLower(s), q) {
				out = append(out, u)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func completeOnly(users []db.User) []db.User {
	out := users[:0]
	for _, u := range users {
		if u.ProfileComplete() {
			out = append(out, u)
		}
	}
	return out
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueViolation catches drivers that do not translate errors to
// gorm.ErrDuplicatedKey (TranslateError is off by default).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
