package recordauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newTestContextStore(opts ...ContextStoreOption) *ContextStore {
	grammar, _ := ParseTenantIDGrammar("both")
	return NewContextStore("sess-1", grammar, opts...)
}

const validHexID = "64b2f0a1c9e4d5b6a7f8e9d0"
const validUUID = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

func TestSetTenantOverrideAcceptsBothGrammars(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("hex24 id rejected: %v", err)
	}
	if err := store.SetTenantOverride(ctx, validUUID); err != nil {
		t.Fatalf("uuid rejected: %v", err)
	}
	if got := store.Snapshot().TenantOverride; got != validUUID {
		t.Fatalf("expected %s, got %s", validUUID, got)
	}
}

func TestInvalidTenantOverrideRejectedWholly(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("setup: %v", err)
	}

	notified := 0
	store.OnScopeChanged(func() { notified++ })

	err := store.SetTenantOverride(ctx, "not-an-id")
	if !errors.Is(err, ErrInvalidOverrideFormat) {
		t.Fatalf("expected ErrInvalidOverrideFormat, got %v", err)
	}
	if notified != 0 {
		t.Fatalf("rejected override must not fire a change notification")
	}
	if got := store.Snapshot().TenantOverride; got != validHexID {
		t.Fatalf("previous override must be retained, got %q", got)
	}
}

func TestSetTenantOverrideIdempotentNotification(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	notified := 0
	store.OnScopeChanged(func() { notified++ })

	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("repeat set: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected exactly one notification, got %d", notified)
	}
}

func TestSubscriberPanicIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	secondRan := false
	store.OnScopeChanged(func() { panic("subscriber bug") })
	store.OnScopeChanged(func() { secondRan = true })

	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !secondRan {
		t.Fatalf("a panicking subscriber must not stop the others")
	}
	if store.Snapshot().TenantOverride != validHexID {
		t.Fatalf("a panicking subscriber must not prevent the update")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	notified := 0
	unsub := store.OnScopeChanged(func() { notified++ })
	_ = store.SetTenantOverride(ctx, validHexID)
	unsub()
	_ = store.ClearTenantOverride(ctx)
	if notified != 1 {
		t.Fatalf("expected one notification before unsubscribe, got %d", notified)
	}
}

func TestEmployeeOverrideValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestContextStore()
	if err := store.SetEmployeeOverride(ctx, "b@x.com"); err != nil {
		t.Fatalf("email rejected: %v", err)
	}
	if err := store.SetEmployeeOverride(ctx, EmployeeScopeUnassigned); err != nil {
		t.Fatalf("unassigned rejected: %v", err)
	}
	if err := store.SetEmployeeOverride(ctx, "no spaces @"); !errors.Is(err, ErrInvalidOverrideFormat) {
		t.Fatalf("expected ErrInvalidOverrideFormat, got %v", err)
	}
}

// fakeBackend records write-through traffic. The real backends live in
// the stores package.
type fakeBackend struct {
	mu    sync.Mutex
	saved map[string]SessionContext
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{saved: make(map[string]SessionContext)}
}

func (f *fakeBackend) Load(ctx context.Context, sessionID string) (SessionContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[sessionID], nil
}

func (f *fakeBackend) Save(ctx context.Context, sessionID string, sc SessionContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[sessionID] = sc
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, sessionID)
	return nil
}

func TestOverridesSurviveReload(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()

	store := newTestContextStore(WithSessionBackend(backend))
	if err := store.SetTenantOverride(ctx, validHexID); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetEmployeeOverride(ctx, "b@x.com"); err != nil {
		t.Fatalf("set employee: %v", err)
	}

	reloaded := newTestContextStore(WithSessionBackend(backend))
	if err := reloaded.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := reloaded.Snapshot()
	if got.TenantOverride != validHexID || got.EmployeeOverride != "b@x.com" {
		t.Fatalf("overrides lost across reload: %#v", got)
	}
}

func TestRestoreDropsInvalidPersistedOverride(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	_ = backend.Save(ctx, "sess-1", SessionContext{TenantOverride: "legacy-garbage", EmployeeOverride: "not an email"})

	store := newTestContextStore(WithSessionBackend(backend))
	if err := store.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := store.Snapshot(); got != (SessionContext{}) {
		t.Fatalf("invalid persisted overrides must be dropped, got %#v", got)
	}
}

func TestRestoreKeepsValidEmployeeOverrideForms(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	_ = backend.Save(ctx, "sess-1", SessionContext{EmployeeOverride: EmployeeScopeUnassigned})

	store := newTestContextStore(WithSessionBackend(backend))
	if err := store.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := store.Snapshot().EmployeeOverride; got != EmployeeScopeUnassigned {
		t.Fatalf("unassigned override must survive restore, got %q", got)
	}
}

func TestResetClearsStateAndBackend(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := newTestContextStore(WithSessionBackend(backend))
	_ = store.SetTenantOverride(ctx, validHexID)

	notified := 0
	store.OnScopeChanged(func() { notified++ })
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if store.Snapshot() != (SessionContext{}) {
		t.Fatalf("state not cleared: %#v", store.Snapshot())
	}
	if sc, _ := backend.Load(ctx, "sess-1"); sc != (SessionContext{}) {
		t.Fatalf("backend not cleared: %#v", sc)
	}
	if notified != 1 {
		t.Fatalf("reset must notify once, got %d", notified)
	}
}
