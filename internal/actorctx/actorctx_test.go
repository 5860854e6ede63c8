package actorctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	if _, ok := From(context.Background()); ok {
		t.Fatalf("empty context must not carry an actor")
	}

	ctx := With(context.Background(), Actor{UserID: 3, Role: "admin", Token: "tok"})

	a, ok := From(ctx)
	if !ok || a.UserID != 3 || !a.IsAdmin() {
		t.Fatalf("From = %+v, %v", a, ok)
	}

	// no token means the guard never validated it
	ctx = With(context.Background(), Actor{UserID: 3, Role: "admin"})
	if _, ok := From(ctx); ok {
		t.Fatalf("actor without token must not count as authenticated")
	}
}
