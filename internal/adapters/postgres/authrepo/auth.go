package authrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	postgres "github.com/fieldops/fieldops-api/internal/adapters/postgres"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
)

// Auth stores accounts in Postgres and sessions in a SessionStore.
type Auth struct {
	pool     *pgxpool.Pool
	sessions authrepo.SessionStore
	cost     int
	current  authrepo.SessionHolder
}

var _ authrepo.SessionAuth = (*Auth)(nil)

type Option func(*Auth)

func WithBcryptCost(cost int) Option {
	return func(a *Auth) { a.cost = cost }
}

func New(pool *pgxpool.Pool, sessions authrepo.SessionStore, opts ...Option) *Auth {
	a := &Auth{pool: pool, sessions: sessions, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Auth) SignUp(ctx context.Context, email, password, displayName string) (domain.Account, error) {
	if a.pool == nil {
		return domain.Account{}, errors.New("nil postgres pool")
	}
	email, name, err := authrepo.NormalizeSignUp(email, password, displayName)
	if err != nil {
		return domain.Account{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return domain.Account{}, err
	}
	acct := domain.Account{UserID: domain.UserID(uuid.NewString()), Email: email, DisplayName: name}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO accounts (user_id, email, display_name, password_hash) VALUES ($1, $2, $3, $4)
	`, uuid.MustParse(string(acct.UserID)), acct.Email, acct.DisplayName, hash)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "accounts_email_unique" {
			return domain.Account{}, authrepo.ErrEmailTaken
		}
		return domain.Account{}, postgres.Classify("auth.sign_up", err)
	}
	return a.startSession(ctx, acct)
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (domain.Account, error) {
	if a.pool == nil {
		return domain.Account{}, errors.New("nil postgres pool")
	}
	var (
		uid  uuid.UUID
		acct domain.Account
		hash []byte
	)
	err := a.pool.QueryRow(ctx, `
		SELECT user_id, email, display_name, password_hash FROM accounts WHERE email = $1
	`, domain.NormalizeEmail(email)).Scan(&uid, &acct.Email, &acct.DisplayName, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, authrepo.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Account{}, postgres.Classify("auth.sign_in", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.Account{}, authrepo.ErrInvalidCredentials
		}
		return domain.Account{}, err
	}
	acct.UserID = domain.UserID(uid.String())
	return a.startSession(ctx, acct)
}

func (a *Auth) startSession(ctx context.Context, acct domain.Account) (domain.Account, error) {
	sess, err := a.sessions.Create(ctx, acct)
	if err != nil {
		return domain.Account{}, err
	}
	a.current.Set(sess)
	return acct, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	sess, ok := a.current.Get()
	if !ok {
		return nil
	}
	if err := a.sessions.Revoke(ctx, sess.Token); err != nil {
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
	return a.sessions.Lookup(ctx, token)
}
