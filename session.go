package recordauth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andreibyf/aishacrm-2-sub006/logger"
)

// ============================================================================
// SESSION / CONTEXT STORE
// ============================================================================

// SessionContext is the persisted session state this engine owns: the
// administrator's tenant override and the employee-scope override. The
// effective scope is always derived from these two inputs plus the
// identity, never stored itself.
type SessionContext struct {
	TenantOverride   string `json:"tenant_override,omitempty"`
	EmployeeOverride string `json:"employee_override,omitempty"`
}

// SessionStore persists one session's overrides so they survive a reload.
// Implementations live in the stores package (memory, redis, sql). State
// is keyed by session id and never shared across sessions or users.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (SessionContext, error)
	Save(ctx context.Context, sessionID string, sc SessionContext) error
	Delete(ctx context.Context, sessionID string) error
}

// ContextStore owns the lifecycle of one session's overrides: validation,
// atomic reads, persistence write-through and change notification. Writes
// are last-write-wins; a concurrent Snapshot never observes a half-updated
// pair of overrides.
type ContextStore struct {
	mu        sync.RWMutex
	sessionID string
	state     SessionContext
	grammar   TenantIDGrammar
	backend   SessionStore
	log       logger.Logger

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int
}

// ContextStoreOption configures a ContextStore.
type ContextStoreOption func(*ContextStore)

// WithSessionBackend installs a persistence backend the store writes
// through to.
func WithSessionBackend(s SessionStore) ContextStoreOption {
	return func(c *ContextStore) { c.backend = s }
}

// WithSessionLogger installs a logger for override rejections and
// subscriber failures.
func WithSessionLogger(l logger.Logger) ContextStoreOption {
	return func(c *ContextStore) { c.log = l }
}

// NewContextStore creates the store for one session. The grammar decides
// which tenant identifier forms SetTenantOverride accepts.
func NewContextStore(sessionID string, grammar TenantIDGrammar, opts ...ContextStoreOption) *ContextStore {
	c := &ContextStore{
		sessionID: sessionID,
		grammar:   grammar,
		log:       logger.NewNullLogger(),
		subs:      make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads persisted overrides from the backend. Values that no
// longer validate are dropped rather than applied, so a grammar change
// between deployments cannot smuggle a stale identifier back in.
func (c *ContextStore) Restore(ctx context.Context) error {
	if c.backend == nil {
		return nil
	}
	sc, err := c.backend.Load(ctx, c.sessionID)
	if err != nil {
		return fmt.Errorf("restore session %s: %w", c.sessionID, err)
	}
	if sc.TenantOverride != "" && sc.TenantOverride != AllTenants && !c.grammar.Valid(sc.TenantOverride) {
		c.log.Error("dropping persisted tenant override", "session_id", c.sessionID, "value", sc.TenantOverride)
		sc.TenantOverride = ""
	}
	if sc.EmployeeOverride != "" && sc.EmployeeOverride != EmployeeScopeUnassigned && !looksLikeEmail(sc.EmployeeOverride) {
		c.log.Error("dropping persisted employee override", "session_id", c.sessionID, "value", sc.EmployeeOverride)
		sc.EmployeeOverride = ""
	}
	c.mu.Lock()
	c.state = sc
	c.mu.Unlock()
	return nil
}

// Snapshot returns the current overrides as one atomic value.
func (c *ContextStore) Snapshot() SessionContext {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetTenantOverride validates and applies a tenant override. An invalid
// identifier is rejected whole: the previous override stays untouched and
// no notification fires.
func (c *ContextStore) SetTenantOverride(ctx context.Context, id string) error {
	if id != AllTenants && !c.grammar.Valid(id) {
		c.log.Error("tenant override rejected", "session_id", c.sessionID, "value", id)
		return fmt.Errorf("%w: tenant id %q", ErrInvalidOverrideFormat, id)
	}
	return c.apply(ctx, func(sc *SessionContext) { sc.TenantOverride = id })
}

// ClearTenantOverride removes the tenant override.
func (c *ContextStore) ClearTenantOverride(ctx context.Context) error {
	return c.apply(ctx, func(sc *SessionContext) { sc.TenantOverride = "" })
}

// SetEmployeeOverride applies an employee-scope override: a specific
// employee's email or EmployeeScopeUnassigned.
func (c *ContextStore) SetEmployeeOverride(ctx context.Context, value string) error {
	if value != EmployeeScopeUnassigned && !looksLikeEmail(value) {
		c.log.Error("employee override rejected", "session_id", c.sessionID, "value", value)
		return fmt.Errorf("%w: employee scope %q", ErrInvalidOverrideFormat, value)
	}
	return c.apply(ctx, func(sc *SessionContext) { sc.EmployeeOverride = value })
}

// ClearEmployeeOverride removes the employee-scope override.
func (c *ContextStore) ClearEmployeeOverride(ctx context.Context) error {
	return c.apply(ctx, func(sc *SessionContext) { sc.EmployeeOverride = "" })
}

// Reset clears every override and the persisted copy. Called on logout.
func (c *ContextStore) Reset(ctx context.Context) error {
	c.mu.Lock()
	changed := c.state != SessionContext{}
	c.state = SessionContext{}
	c.mu.Unlock()
	var err error
	if c.backend != nil {
		err = c.backend.Delete(ctx, c.sessionID)
	}
	if changed {
		c.notify()
	}
	return err
}

// OnScopeChanged registers a callback fired once per effective change.
// The returned function unsubscribes. Callbacks carry no payload:
// subscribers re-resolve the scope and re-fetch.
func (c *ContextStore) OnScopeChanged(fn func()) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *ContextStore) apply(ctx context.Context, mutate func(*SessionContext)) error {
	c.mu.Lock()
	prev := c.state
	mutate(&c.state)
	next := c.state
	c.mu.Unlock()
	if next == prev {
		// Setting the same value twice is one effective change, not two.
		return nil
	}
	var err error
	if c.backend != nil {
		if err = c.backend.Save(ctx, c.sessionID, next); err != nil {
			err = fmt.Errorf("persist session %s: %w", c.sessionID, err)
			c.log.Error("session persistence failed", "session_id", c.sessionID, "error", err.Error())
		}
	}
	c.notify()
	return err
}

// notify is fire-and-forget: a panicking subscriber is isolated and must
// not prevent the remaining subscribers from running.
func (c *ContextStore) notify() {
	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("scope-change subscriber panicked", "session_id", c.sessionID, "panic", fmt.Sprint(r))
				}
			}()
			fn()
		}()
	}
}

func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n")
}
