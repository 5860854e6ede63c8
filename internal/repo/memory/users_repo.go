package memory

import (
	"context"
	"strings"

	"github.com/geocoder89/rentalhub/internal/domain/user"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.db.nextUserID++
	u.ID = r.db.nextUserID
	u.CreatedAt = r.db.now().UTC()
	r.db.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}
