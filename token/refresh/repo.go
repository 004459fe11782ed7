package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side record of an issued refresh
// token. The client only ever holds the signed token string; this record is
// what makes the token revocable.
type StoredRefreshToken struct {
	Token     string    // The signed token string (sent to client)
	UserID    string    // Subject the token was issued to
	ExpiresAt time.Time // Server-side expiry, matches the token's exp claim
}

// Repo manages the durable refresh-token records. A user may hold several
// concurrent records (multi-device). Implementations must provide per-key
// atomic insert and delete.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)

	// Delete removes the record for token and reports whether a record was
	// actually removed. Deleting a missing token is not an error; the bool
	// lets rotation detect when a concurrent request already consumed the
	// token.
	Delete(token string) (bool, error)

	// DeleteByUserID removes every record held by the user.
	DeleteByUserID(userID string) error
}
