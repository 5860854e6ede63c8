package handlers

import (
	"context"
	"errors"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/geocoder89/rentalhub/internal/http/middlewares"
	"github.com/geocoder89/rentalhub/internal/security"
	"github.com/gin-gonic/gin"
)

const msgBadCredentials = "Email or password is incorrect."

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Extend(ctx context.Context, userID int64, token string) bool
	Revoke(ctx context.Context, userID int64, token string)
}

// SessionCookie writes and clears the browser-side session marker.
type SessionCookie interface {
	Start(c *gin.Context, a actorctx.Actor) error
	Destroy(c *gin.Context)
	MarkExtended(c *gin.Context)
}

type AuthHandler struct {
	users    UserStore
	sessions SessionIssuer
	cookie   SessionCookie
}

func NewAuthHandler(users UserStore, sessions SessionIssuer, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		cookie:   cookie,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := security.SanitizeInput(req.Name)
	email := security.NormalizeEmail(req.Email)

	if name == "" {
		RespondFail(ctx, "name is required", nil)
		return
	}

	if !ValidateField(ctx, "email", email, "required,email") {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondStorageError(ctx, "auth.register.hash", err)
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), user.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleCustomer,
	})

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondFail(ctx, "Email is already registered", nil)
			return
		}

		RespondStorageError(ctx, "auth.register", err)
		return
	}

	RespondOK(ctx, "Registration successful. You can log in now.", u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email := security.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		RespondFail(ctx, "Please fill in all fields", nil)
		return
	}

	u, err := h.users.GetByEmail(ctx.Request.Context(), email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondFail(ctx, msgBadCredentials, nil)
			return
		}

		RespondStorageError(ctx, "auth.login.lookup", err)
		return
	}

	if !security.VerifyPassword(req.Password, u.PasswordHash) {
		RespondFail(ctx, msgBadCredentials, nil)
		return
	}

	token, err := h.sessions.Issue(ctx.Request.Context(), u.ID)

	if err != nil {
		RespondStorageError(ctx, "auth.login.issue_session", err)
		return
	}

	actor := actorctx.Actor{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email, Token: token}

	if err := h.cookie.Start(ctx, actor); err != nil {
		h.sessions.Revoke(ctx.Request.Context(), u.ID, token)
		RespondStorageError(ctx, "auth.login.cookie", err)
		return
	}

	RespondOK(ctx, "Login successful", gin.H{"role": u.Role, "name": u.Name})
}

// Logout is safe to call repeatedly and without a session.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if actor, ok := middlewares.ActorFrom(ctx); ok {
		h.sessions.Revoke(ctx.Request.Context(), actor.UserID, actor.Token)
	}

	h.cookie.Destroy(ctx)

	RespondOK(ctx, "Logged out", nil)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	actor, ok := middlewares.ActorFrom(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Please log in to continue")
		return
	}

	RespondOK(ctx, "", gin.H{
		"id":    actor.UserID,
		"name":  actor.Name,
		"email": actor.Email,
		"role":  actor.Role,
	})
}

func (h *AuthHandler) ExtendSession(ctx *gin.Context) {
	actor, ok := middlewares.ActorFrom(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Please log in to continue")
		return
	}

	if !h.sessions.Extend(ctx.Request.Context(), actor.UserID, actor.Token) {
		h.cookie.Destroy(ctx)
		RespondUnauthorized(ctx, "Session expired")
		return
	}

	h.cookie.MarkExtended(ctx)

	RespondOK(ctx, "Session extended", nil)
}
