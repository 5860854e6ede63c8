package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/rentalhub/internal/actorctx"
	"github.com/geocoder89/rentalhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
)

// The cookie carries only the session handle. Identity and role come from the
// user record on every request.
const (
	keyUserID       = "user_id"
	keyToken        = "token"
	keyLastActivity = "last_activity"
)

// SessionValidator is the slice of session.Store the guard depends on.
type SessionValidator interface {
	Extend(ctx context.Context, userID int64, token string) bool
	Revoke(ctx context.Context, userID int64, token string)
	Timeout() time.Duration
	Now() time.Time
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// SessionGuard resolves the caller from the signed session cookie. Every
// request is rechecked against the session store, which also slides the
// stored expiry forward.
type SessionGuard struct {
	cookies  gsessions.Store
	name     string
	sessions SessionValidator
	users    UserLookup
	log      *slog.Logger
}

type CookieOptions struct {
	Name     string
	HashKey  []byte
	BlockKey []byte
	Secure   bool
	MaxAge   time.Duration
}

// NewCookieStore builds the gorilla cookie store holding the session handle.
func NewCookieStore(opts CookieOptions) *gsessions.CookieStore {
	store := gsessions.NewCookieStore(opts.HashKey, opts.BlockKey)
	store.MaxAge(int(opts.MaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = opts.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func NewSessionGuard(cookies gsessions.Store, name string, sessions SessionValidator, users UserLookup, log *slog.Logger) *SessionGuard {
	if log == nil {
		log = slog.Default()
	}
	return &SessionGuard{cookies: cookies, name: name, sessions: sessions, users: users, log: log}
}

// Load runs on every request. It never aborts; RequireLogin and RequireAdmin
// decide what an anonymous caller may reach.
func (g *SessionGuard) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := g.resolve(c); ok {
			setActor(c, actor)
		}
		c.Next()
	}
}

func (g *SessionGuard) resolve(c *gin.Context) (actorctx.Actor, bool) {
	sess, err := g.cookies.Get(c.Request, g.name)
	if err != nil {
		// tampered or signed with an old key
		g.log.DebugContext(c.Request.Context(), "session cookie rejected", "err", err)
		return actorctx.Actor{}, false
	}

	userID, _ := sess.Values[keyUserID].(int64)
	token, _ := sess.Values[keyToken].(string)
	if userID <= 0 || token == "" {
		return actorctx.Actor{}, false
	}

	ctx := c.Request.Context()
	now := g.sessions.Now()

	lastActivity, _ := sess.Values[keyLastActivity].(int64)
	if now.Sub(time.Unix(lastActivity, 0)) > g.sessions.Timeout() {
		g.end(c, sess, userID, token)
		return actorctx.Actor{}, false
	}

	// validates and moves expires_at to now+timeout in one step, so the stored
	// expiry never falls behind the idle check above
	if !g.sessions.Extend(ctx, userID, token) {
		g.end(c, sess, userID, token)
		return actorctx.Actor{}, false
	}

	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			g.end(c, sess, userID, token)
		} else {
			g.log.ErrorContext(ctx, "session user lookup failed", "user_id", userID, "err", err)
		}
		return actorctx.Actor{}, false
	}

	sess.Values[keyLastActivity] = now.Unix()
	if err := sess.Save(c.Request, c.Writer); err != nil {
		g.log.WarnContext(ctx, "session cookie not refreshed", "err", err)
	}

	return actorctx.Actor{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email, Token: token}, true
}

// end revokes the stored session and expires the cookie.
func (g *SessionGuard) end(c *gin.Context, sess *gsessions.Session, userID int64, token string) {
	g.sessions.Revoke(c.Request.Context(), userID, token)
	g.clear(c, sess)
}

// Start writes a fresh session marker after a successful login.
func (g *SessionGuard) Start(c *gin.Context, a actorctx.Actor) error {
	sess, _ := g.cookies.New(c.Request, g.name)

	sess.Values[keyUserID] = a.UserID
	sess.Values[keyToken] = a.Token
	sess.Values[keyLastActivity] = g.sessions.Now().Unix()

	if err := sess.Save(c.Request, c.Writer); err != nil {
		return err
	}

	setActor(c, a)
	return nil
}

// Destroy expires the cookie. The caller revokes the stored token.
func (g *SessionGuard) Destroy(c *gin.Context) {
	sess, _ := g.cookies.Get(c.Request, g.name)
	g.clear(c, sess)
}

// MarkExtended stamps the cookie after an explicit extension.
func (g *SessionGuard) MarkExtended(c *gin.Context) {
	sess, err := g.cookies.Get(c.Request, g.name)
	if err != nil {
		return
	}
	sess.Values[keyLastActivity] = g.sessions.Now().Unix()
	_ = sess.Save(c.Request, c.Writer)
}

func (g *SessionGuard) clear(c *gin.Context, sess *gsessions.Session) {
	if sess == nil {
		return
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		g.log.WarnContext(c.Request.Context(), "session cookie not cleared", "err", err)
	}
}

func setActor(c *gin.Context, a actorctx.Actor) {
	c.Set(CtxActor, a)
	c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), a))
}

// ActorFrom returns the caller resolved by SessionGuard.Load.
func ActorFrom(c *gin.Context) (actorctx.Actor, bool) {
	v, ok := c.Get(CtxActor)
	if !ok {
		return actorctx.Actor{}, false
	}
	a, ok := v.(actorctx.Actor)
	return a, ok && a.IsAuthenticated()
}
