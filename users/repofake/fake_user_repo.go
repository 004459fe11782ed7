package fakeuserrepo

import (
	"sync"
	"time"

	"github.com/campusworks/go-session-service/users"
	"github.com/google/uuid"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepo used in tests and as the bundled
// default store. All operations are atomic under a single lock, matching
// the per-key atomicity the service expects from a real database.
type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return users.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now()
	}

	stored := *user
	ur.users[stored.ID] = &stored
	ur.emailIds[stored.Email] = stored.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(user), nil
}

func (ur *FakeUserRepo) UpdatePasswordHash(id, passwordHash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (ur *FakeUserRepo) UpdateEmail(id, email string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	if existingID, taken := ur.emailIds[email]; taken && existingID != id {
		return users.ErrDuplicateEmail
	}

	delete(ur.emailIds, user.Email)
	user.Email = email
	ur.emailIds[email] = id
	return nil
}

func (ur *FakeUserRepo) SetLastLogin(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.LastLogin = time.Now()
	return nil
}

// SetBlocked flips the deactivation flag directly in the store, standing in
// for the admin tooling a real deployment would use.
func (ur *FakeUserRepo) SetBlocked(id string, blocked bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.Blocked = blocked
	return nil
}

func (ur *FakeUserRepo) SetVerified(id string, verified bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[id]
	if !ok {
		return users.ErrNotFound
	}
	user.Verified = verified
	return nil
}

func (ur *FakeUserRepo) FindOrCreate(identity users.ExternalIdentity) (*users.User, bool, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if id, ok := ur.emailIds[identity.Email]; ok {
		return copyUser(ur.users[id]), false, nil
	}

	user := &users.User{
		ID:    uuid.New().String(),
		Email: identity.Email,
		Role:  users.RoleStudent,
		Profile: users.Profile{
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		},
		DateJoined: time.Now(),
		Verified:   identity.Verified,
	}
	ur.users[user.ID] = user
	ur.emailIds[user.Email] = user.ID
	return copyUser(user), true, nil
}

func copyUser(u *users.User) *users.User {
	c := *u
	return &c
}
