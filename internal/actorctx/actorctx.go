package actorctx

import (
	"context"

	"github.com/geocoder89/rentalhub/internal/domain/user"
)

type ctxKey struct{}

// Actor is the authenticated caller, resolved once per request by the session
// guard and passed explicitly to every operation that needs identity.
type Actor struct {
	UserID int64
	Role   string
	Name   string
	Email  string
	Token  string
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID > 0 && a.Token != ""
}

func (a Actor) IsAdmin() bool {
	return a.IsAuthenticated() && a.Role == user.RoleAdmin
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.IsAuthenticated()
}
