package identity

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/clipsync/internal/common"
)

type idTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenProvider resolves identity from a Firebase ID token supplied by the
// auth provider flow. The token's signature is not verified here: the device
// received it from its own auth provider, and the remote store enforces
// authorization server-side. Expiry is still checked.
type TokenProvider struct {
	mu        sync.Mutex
	user      User
	signedIn  bool
	nextSubID int
	subs      map[int]func(User, bool)
}

func NewTokenProvider() *TokenProvider {
	return &TokenProvider{subs: make(map[int]func(User, bool))}
}

// SignIn parses the raw ID token, extracts the uid (sub) and email claims
// and notifies subscribers. Returns common.ErrTokenExpired for a stale token
// and common.ErrInvalidToken for anything unparsable.
func (p *TokenProvider) SignIn(rawToken string) (User, error) {
	var claims idTokenClaims
	_, _, err := jwt.NewParser().ParseUnverified(rawToken, &claims)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return User{}, common.ErrTokenExpired
	}
	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: missing sub claim", common.ErrInvalidToken)
	}

	user := User{UID: claims.Subject, Email: claims.Email}

	p.mu.Lock()
	p.user = user
	p.signedIn = true
	subs := p.snapshotSubs()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(user, true)
	}
	return user, nil
}

// SignOut clears the identity and notifies subscribers. Safe to call when
// already signed out.
func (p *TokenProvider) SignOut() {
	p.mu.Lock()
	wasSignedIn := p.signedIn
	p.user = User{}
	p.signedIn = false
	subs := p.snapshotSubs()
	p.mu.Unlock()

	if !wasSignedIn {
		return
	}
	for _, fn := range subs {
		fn(User{}, false)
	}
}

func (p *TokenProvider) Current() (User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user, p.signedIn
}

func (p *TokenProvider) OnChange(fn func(User, bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// snapshotSubs must be called with mu held.
func (p *TokenProvider) snapshotSubs() []func(User, bool) {
	out := make([]func(User, bool), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

// Static is a fixed identity provider for tests and guest mode.
type Static struct {
	User     User
	SignedIn bool
}

func (s *Static) Current() (User, bool)            { return s.User, s.SignedIn }
func (s *Static) OnChange(func(User, bool)) func() { return func() {} }
