package recordauth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/andreibyf/aishacrm-2-sub006/logger"
)

// ============================================================================
// ENGINE
// ============================================================================

// Engine ties the registry, the scope resolver and the predicate cache
// together behind the two call sites the application has: the per-record
// permit check and the list predicate. All decision paths are pure; the
// engine only adds caching and logging around them.
type Engine struct {
	registry    *Registry
	log         logger.Logger
	traceIDFunc logger.TraceIDFunc

	predCache *ristretto.Cache
	cacheTTL  time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine) error

// WithLogger installs a structured logger.
func WithLogger(l logger.Logger) EngineOption {
	return func(e *Engine) error {
		e.log = l
		return nil
	}
}

// WithTraceIDFunc installs a correlation-id generator attached to every
// denial log line.
func WithTraceIDFunc(f logger.TraceIDFunc) EngineOption {
	return func(e *Engine) error {
		e.traceIDFunc = f
		return nil
	}
}

// WithPredicateCache enables the ristretto cache for compiled list
// predicates, keyed by record type, operation, identity and scope.
func WithPredicateCache(numCounters, maxCost, bufferItems int64, ttl time.Duration) EngineOption {
	return func(e *Engine) error {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: numCounters,
			MaxCost:     maxCost,
			BufferItems: bufferItems,
		})
		if err != nil {
			return fmt.Errorf("predicate cache: %w", err)
		}
		if e.predCache != nil {
			e.predCache.Close()
		}
		e.predCache = cache
		e.cacheTTL = ttl
		return nil
	}
}

// NewEngine creates an engine over a validated registry.
func NewEngine(registry *Registry, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		registry: registry,
		log:      logger.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// NewEngineFromConfig validates the config, builds the registry and wires
// the cache sizing from the engine section.
func NewEngineFromConfig(cfg *Config, opts ...EngineOption) (*Engine, error) {
	registry, err := cfg.BuildRegistry()
	if err != nil {
		return nil, err
	}
	if cfg.Engine.RistrettoNumCounter > 0 {
		ttl := time.Duration(cfg.Engine.PredicateCacheTTL) * time.Millisecond
		if ttl <= 0 {
			ttl = time.Second
		}
		opts = append([]EngineOption{WithPredicateCache(
			cfg.Engine.RistrettoNumCounter,
			cfg.Engine.RistrettoMaxCost,
			cfg.Engine.RistrettoBuffer,
			ttl,
		)}, opts...)
	}
	return NewEngine(registry, opts...)
}

// Close releases the predicate cache.
func (e *Engine) Close() {
	if e.predCache != nil {
		e.predCache.Close()
	}
}

// CanRead reports whether the caller may read one concrete record.
func (e *Engine) CanRead(id Identity, recordType string, rec Record) bool {
	return e.permit(id, recordType, OpRead, rec)
}

// CanWrite reports whether the caller may write one concrete record.
func (e *Engine) CanWrite(id Identity, recordType string, rec Record) bool {
	return e.permit(id, recordType, OpWrite, rec)
}

func (e *Engine) permit(id Identity, recordType string, op Operation, rec Record) bool {
	policy, ok := e.registry.Lookup(recordType)
	if !ok {
		e.deny(id, recordType, op, ErrUnknownRecordType)
		return false
	}
	resolved, err := Resolve(policy.Rule(op), id)
	if err != nil {
		e.deny(id, recordType, op, err)
		return false
	}
	return resolved.Evaluate(rec)
}

// ListPredicate computes the storage filter for a list/search request.
// The result is always safe to hand to the storage layer: every failure
// path collapses to the never-matches predicate, reported through the
// error for alerting.
func (e *Engine) ListPredicate(id Identity, recordType string, sess SessionContext) (Predicate, error) {
	scope, scopeErr := ResolveScope(id, sess)
	if scopeErr != nil {
		if scope.MatchesNothing() {
			e.deny(id, recordType, OpRead, scopeErr)
			return MatchNone(), scopeErr
		}
		// An ignored override still resolves to a safe role-derived
		// scope; log it and continue.
		e.log.Info("override ignored", "email", id.Email, "record_type", recordType, "error", scopeErr.Error())
	}

	key := predicateKey(id, recordType, scope)
	if e.predCache != nil {
		if v, ok := e.predCache.Get(key); ok {
			return v.(Predicate), nil
		}
	}

	policy, ok := e.registry.Lookup(recordType)
	if !ok {
		e.deny(id, recordType, OpRead, ErrUnknownRecordType)
		return MatchNone(), ErrUnknownRecordType
	}
	resolved, err := Resolve(policy.Rule(OpRead), id)
	if err != nil {
		e.deny(id, recordType, OpRead, err)
		return MatchNone(), err
	}
	pred := CompileForList(resolved, scope)
	if e.predCache != nil {
		e.predCache.SetWithTTL(key, pred, 1, e.cacheTTL)
	}
	return pred, nil
}

func (e *Engine) deny(id Identity, recordType string, op Operation, err error) {
	keyvals := []any{
		"email", id.Email,
		"role", string(id.Role),
		"tenant_id", id.TenantID,
		"record_type", recordType,
		"operation", string(op),
		"error", err.Error(),
	}
	if e.traceIDFunc != nil {
		keyvals = append(keyvals, "trace_id", e.traceIDFunc())
	}
	e.log.Error("access denied", keyvals...)
}

func predicateKey(id Identity, recordType string, scope EffectiveScope) string {
	// Quote every field so a value containing the separator cannot alias
	// another identity's key.
	parts := []string{
		recordType, id.Email, string(id.Role), string(id.EmployeeRole), id.TenantID,
		scope.TenantID, string(scope.Mode), scope.Employee, strconv.FormatBool(scope.AllTenants),
	}
	for i, p := range parts {
		parts[i] = strconv.Quote(p)
	}
	return strings.Join(parts, "|")
}
