package httpapi

import (
	"context"

	"github.com/fieldops/fieldops-api/internal/domain"
)

type accountKey struct{}

func WithAccount(ctx context.Context, acct domain.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acct)
}

func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	v, ok := ctx.Value(accountKey{}).(domain.Account)
	return v, ok && v.UserID.Valid()
}
