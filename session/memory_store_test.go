package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"docfields/fieldconfig"
)

type mockTimeProvider struct {
	currentTime time.Time
	mutex       sync.Mutex
}

func (mtp *mockTimeProvider) Now() time.Time {
	mtp.mutex.Lock()
	defer mtp.mutex.Unlock()
	return mtp.currentTime
}

func (mtp *mockTimeProvider) Add(d time.Duration) {
	mtp.mutex.Lock()
	mtp.currentTime = mtp.currentTime.Add(d)
	mtp.mutex.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(id string, expiry time.Time) *Session {
	return &Session{
		ID: id,
		Config: &fieldconfig.ExtractionConfig{
			Fields: []fieldconfig.FieldSpec{{Name: "policy_id", Keywords: []string{"policy"}}},
		},
		Expiry: expiry,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testLogger())

	sess := testSession("abc", time.Now().Add(2*time.Hour))
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "abc" || len(got.Config.Fields) != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	mtp := &mockTimeProvider{currentTime: time.Now()}
	store := NewMemoryStore(testLogger())
	store.SetTimeProvider(mtp)

	if err := store.Put(ctx, testSession("abc", mtp.Now().Add(2*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.Get(ctx, "abc"); err != nil {
		t.Fatalf("session should still be valid: %v", err)
	}

	mtp.Add(2*time.Hour + time.Second)
	if _, err := store.Get(ctx, "abc"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}

	// lazy expiry removed the entry
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected empty store after expired lookup, got %d", count)
	}
}

func TestMemoryStoreCleanupSweep(t *testing.T) {
	ctx := context.Background()
	mtp := &mockTimeProvider{currentTime: time.Now()}
	store := NewMemoryStore(testLogger())
	store.SetTimeProvider(mtp)

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("sess_%d", i)
		if err := store.Put(ctx, testSession(id, mtp.Now().Add(time.Hour))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	mtp.Add(time.Hour + time.Second)
	store.performCleanup()

	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("expected sweep to remove all expired sessions, got %d left", count)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess_%d", n)
			_ = store.Put(ctx, testSession(id, time.Now().Add(time.Hour)))
			_, _ = store.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	count, _ := store.Count(ctx)
	if count != 100 {
		t.Errorf("expected 100 sessions, got %d", count)
	}
}

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("same")
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			kl.Unlock("same")
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxActive)
	}
}

func TestKeyLockIndependentKeys(t *testing.T) {
	kl := NewKeyLock()

	kl.Lock("a")
	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		kl.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	kl.Unlock("a")
}
