// Package session resolves the caller's identity from the session cookie and
// gates routes on it.
package session

import (
	"time"

	"bulletin/internal/middleware"
	"bulletin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie.
const CookieName = "bulletin_session"

const (
	identityLocal = "identity"
	usernameLocal = "username"
	usernameKey   = "username"
)

// Identity is the authenticated caller of one request. The zero value is anonymous.
type Identity struct {
	Username string
}

// IsAuthenticated reports whether id names a user.
func (id Identity) IsAuthenticated() bool {
	return id.Username != ""
}

// IsOwner reports whether id is authenticated as author.
func IsOwner(id Identity, author string) bool {
	return id.IsAuthenticated() && id.Username == author
}

// Config configures a Manager.
type Config struct {
	TTL    time.Duration
	Secure bool
	// Redis holds session records when set; otherwise they live in process memory.
	Redis *redis.Client
}

// Manager loads, creates and destroys sessions.
type Manager struct {
	store *session.Store
}

// NewManager builds the session store.
func NewManager(cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	sc := session.Config{
		Expiration:     cfg.TTL,
		KeyLookup:      "cookie:" + CookieName,
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookiePath:     "/",
		KeyGenerator:   uuid.NewString,
	}
	if cfg.Redis != nil {
		// Records are keyed by the session id; the shared client is closed by the cache package.
		sc.Storage = redisstorage.NewFromConnection(cfg.Redis)
	}
	return &Manager{store: session.New(sc)}
}

// Middleware resolves the Identity once per request and exposes it through
// Locals and the request context. A broken session is treated as anonymous.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := Identity{}
		sess, err := m.store.Get(c)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session load failed", "error", err.Error())
		} else if name, ok := sess.Get(usernameKey).(string); ok {
			id.Username = name
		}

		c.Locals(identityLocal, id)
		if id.IsAuthenticated() {
			c.Locals(usernameLocal, id.Username)
			c.SetUserContext(middleware.WithUsername(c.UserContext(), id.Username))
		}
		return c.Next()
	}
}

// FromContext returns the Identity resolved by Middleware.
func FromContext(c *fiber.Ctx) Identity {
	id, _ := c.Locals(identityLocal).(Identity)
	return id
}

// Login starts a fresh session for username; the previous session id is discarded.
func (m *Manager) Login(c *fiber.Ctx, username string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usernameKey, username)
	if err := sess.Save(); err != nil {
		return err
	}

	id := Identity{Username: username}
	c.Locals(identityLocal, id)
	c.Locals(usernameLocal, username)
	c.SetUserContext(middleware.WithUsername(c.UserContext(), username))
	return nil
}

// Logout destroys the session record and expires the cookie.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	c.Locals(identityLocal, Identity{})
	c.Locals(usernameLocal, nil)
	return nil
}

// RequireAuthenticated rejects anonymous API callers with 401.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromContext(c).IsAuthenticated() {
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Login required"))
		}
		return c.Next()
	}
}

// RequirePage redirects anonymous page visitors to loginPath.
func RequirePage(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !FromContext(c).IsAuthenticated() {
			return c.Redirect(loginPath, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RedirectIfAuthenticated sends logged-in visitors to target.
func RedirectIfAuthenticated(target string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if FromContext(c).IsAuthenticated() {
			return c.Redirect(target, fiber.StatusFound)
		}
		return c.Next()
	}
}
