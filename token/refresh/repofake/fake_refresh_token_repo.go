package refreshrepofake

import (
	"sync"

	"github.com/campusworks/go-session-service/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

// FakeRefreshTokenRepo is an in-memory refresh.Repo. A user can hold any
// number of concurrent records; the user index exists so DeleteByUserID does
// not have to scan the token map.
type FakeRefreshTokenRepo struct {
	tokens     map[string]*refresh.StoredRefreshToken
	userTokens map[string]map[string]struct{} // user ID to token set
	lock       sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens:     make(map[string]*refresh.StoredRefreshToken),
		userTokens: make(map[string]map[string]struct{}),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	stored := *refreshToken
	tr.tokens[stored.Token] = &stored
	if tr.userTokens[stored.UserID] == nil {
		tr.userTokens[stored.UserID] = make(map[string]struct{})
	}
	tr.userTokens[stored.UserID][stored.Token] = struct{}{}
	return nil
}

func (tr *FakeRefreshTokenRepo) Get(token string) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return nil, refresh.ErrTokenNotFound
	}
	c := *rt
	return &c, nil
}

func (tr *FakeRefreshTokenRepo) Delete(token string) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok {
		return false, nil
	}
	delete(tr.tokens, token)
	if set := tr.userTokens[rt.UserID]; set != nil {
		delete(set, token)
		if len(set) == 0 {
			delete(tr.userTokens, rt.UserID)
		}
	}
	return true, nil
}

func (tr *FakeRefreshTokenRepo) DeleteByUserID(userID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	for token := range tr.userTokens[userID] {
		delete(tr.tokens, token)
	}
	delete(tr.userTokens, userID)
	return nil
}

// CountForUser reports how many live records a user holds. Test helper.
func (tr *FakeRefreshTokenRepo) CountForUser(userID string) int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.userTokens[userID])
}
