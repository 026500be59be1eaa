package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"dashboard/internal/api"
	"dashboard/internal/models"
)

// ErrEmptyToken is returned when an auth response carries no credential.
var ErrEmptyToken = errors.New("auth response has no token")

// Authenticator performs the remote login and register calls.
// api.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
}

// State is a snapshot of the session.
type State struct {
	User    *models.Identity
	Loading bool
}

// LoggedIn reports whether an identity is present.
func (s State) LoggedIn() bool {
	return s.User != nil
}

// Controller owns the in-memory session and is the single source of truth
// for who is signed in. Pass it explicitly to every consumer.
type Controller struct {
	store  *Store
	auth   Authenticator
	logger *log.Logger

	mu        sync.Mutex
	user      *models.Identity
	loading   bool
	listeners map[int]func(State)
	nextID    int
}

// NewController creates a controller in the loading state. Call Initialize
// before any protected view is used.
func NewController(store *Store, auth Authenticator, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		store:     store,
		auth:      auth,
		logger:    logger,
		loading:   true,
		listeners: make(map[int]func(State)),
	}
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// User returns a copy of the current identity, or nil when logged out.
func (c *Controller) User() *models.Identity {
	return c.State().User
}

// Loading reports whether an auth operation is in progress.
func (c *Controller) Loading() bool {
	return c.State().Loading
}

func (c *Controller) snapshot() State {
	var u *models.Identity
	if c.user != nil {
		cp := *c.user
		u = &cp
	}
	return State{User: u, Loading: c.loading}
}

// Subscribe registers fn to run after every state change. The returned
// function removes it.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// update applies fn under the lock and notifies listeners outside it.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	st := c.snapshot()
	fns := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l)
	}
	c.mu.Unlock()

	for _, l := range fns {
		l(st)
	}
}

// Initialize restores the session from the store. A missing, empty,
// "undefined" or undecodable identity, or an identity without a token,
// purges both keys and leaves the session logged out. It makes no network call.
func (c *Controller) Initialize() {
	var restored *models.Identity

	rawUser, hasUser, token, hasToken, err := c.store.Load()
	switch {
	case err != nil:
		c.logger.Printf("[session] %v", err)
	case !hasUser:
	default:
		id, perr := models.ParseIdentity(rawUser)
		if perr != nil {
			c.logger.Printf("[session] invalid user data in storage, clearing")
		} else if !hasToken || token == "" {
			c.logger.Printf("[session] stored identity has no credential, clearing")
		} else {
			restored = id
		}
	}

	if restored == nil {
		if err := c.store.Purge(); err != nil {
			c.logger.Printf("[session] %v", err)
		}
	}

	c.update(func() {
		c.user = restored
		c.loading = false
	})
}

// Login authenticates and persists the session. Failures are logged and
// leave the session unchanged; they are not returned. Inspect State afterwards.
func (c *Controller) Login(ctx context.Context, email, password string) {
	c.update(func() { c.loading = true })
	defer c.update(func() { c.loading = false })

	resp, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.logger.Printf("[session] login failed: %v", err)
		return
	}
	if err := c.establish(resp); err != nil {
		c.logger.Printf("[session] login failed: %v", err)
	}
}

// Register creates an account and persists the session. Unlike Login, the
// failure is returned to the caller.
func (c *Controller) Register(ctx context.Context, username, email, password string) error {
	c.update(func() { c.loading = true })
	defer c.update(func() { c.loading = false })

	resp, err := c.auth.Register(ctx, username, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := c.establish(resp); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

func (c *Controller) establish(resp *api.AuthResponse) error {
	if resp.Token == "" {
		return ErrEmptyToken
	}
	id := resp.Identity()
	if err := c.store.Save(id, resp.Token); err != nil {
		return err
	}
	c.update(func() { c.user = id })
	return nil
}

// Logout clears the session and both stored keys. It is idempotent.
func (c *Controller) Logout() {
	if err := c.store.Purge(); err != nil {
		c.logger.Printf("[session] %v", err)
	}
	c.update(func() { c.user = nil })
}
