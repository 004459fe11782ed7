package users

import "errors"

var (
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create and UpdateEmail when the
	// email address is already bound to another account.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ExternalIdentity is a pre-verified identity claim handed over by an OIDC
// callback exchange. The subsystem never sees the external provider's
// credentials, only the verified claims.
type ExternalIdentity struct {
	Subject   string // provider-scoped stable subject identifier
	Email     string
	FirstName string
	LastName  string
	Verified  bool // whether the provider vouches for the email address
}

// UserRepo is the persistence collaborator for accounts. Implementations are
// expected to enforce email uniqueness atomically (duplicate-key violations
// surface as ErrDuplicateEmail) and to create the account together with its
// default profile in a single operation.
type UserRepo interface {
	Create(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	UpdatePasswordHash(id, passwordHash string) error
	UpdateEmail(id, email string) error
	SetLastLogin(id string) error
	SetVerified(id string, verified bool) error

	// FindOrCreate resolves an external identity claim to an account,
	// creating one when no account holds the claimed email address.
	// The second return value reports whether an account was created.
	FindOrCreate(identity ExternalIdentity) (*User, bool, error)
}
