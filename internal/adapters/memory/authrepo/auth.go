package authrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
)

// Auth is an in-memory implementation of authrepo.SessionAuth. Accounts and sessions
// live in the shared DB so several handles over one DB see each other's sign-ups.
type Auth struct {
	db      *memdb.DB
	cost    int
	current authrepo.SessionHolder
}

var _ authrepo.SessionAuth = (*Auth)(nil)

type Option func(*Auth)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(a *Auth) { a.cost = cost }
}

func New(db *memdb.DB, opts ...Option) *Auth {
	a := &Auth{db: db, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Auth) SignUp(ctx context.Context, email, password, displayName string) (domain.Account, error) {
	email, name, err := authrepo.NormalizeSignUp(email, password, displayName)
	if err != nil {
		return domain.Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return domain.Account{}, err
	}

	var sess authrepo.Session
	err = a.db.Update(ctx, "auth.sign_up", func(t *memdb.Tables) error {
		if _, taken := t.Accounts[email]; taken {
			return authrepo.ErrEmailTaken
		}
		acct := domain.Account{
			UserID:      domain.UserID(a.db.NewID()),
			Email:       email,
			DisplayName: name,
		}
		t.Accounts[email] = memdb.Account{Account: acct, PasswordHash: hash}
		sess = authrepo.Session{Token: uuid.NewString(), Account: acct}
		t.Sessions[sess.Token] = acct
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	a.current.Set(sess)
	return sess.Account, nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	var sess authrepo.Session
	err := a.db.Update(ctx, "auth.sign_in", func(t *memdb.Tables) error {
		acct, ok := t.Accounts[email]
		if !ok {
			return authrepo.ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return authrepo.ErrInvalidCredentials
			}
			return err
		}
		sess = authrepo.Session{Token: uuid.NewString(), Account: acct.Account}
		t.Sessions[sess.Token] = acct.Account
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	a.current.Set(sess)
	return sess.Account, nil
}

// SignOut is a no-op when nobody is signed in.
func (a *Auth) SignOut(ctx context.Context) error {
	sess, ok := a.current.Get()
	if !ok {
		return nil
	}
	err := a.db.Update(ctx, "auth.sign_out", func(t *memdb.Tables) error {
		delete(t.Sessions, sess.Token)
		return nil
	})
	if err != nil {
		return err
	}
	a.current.Clear()
	return nil
}

func (a *Auth) CurrentUser() (domain.Account, bool) {
	s, ok := a.current.Get()
	return s.Account, ok
}

func (a *Auth) CurrentSession() (authrepo.Session, bool) {
	return a.current.Get()
}

func (a *Auth) Verify(ctx context.Context, token string) (domain.Account, error) {
	var out domain.Account
	err := a.db.View(ctx, "auth.verify", func(t *memdb.Tables) error {
		acct, ok := t.Sessions[token]
		if !ok {
			return authrepo.ErrSessionNotFound
		}
		out = acct
		return nil
	})
	return out, err
}
