package dedupe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_CollapsesConcurrentCallers(t *testing.T) {
	g := New[string]()

	var calls atomic.Int32
	release := make(chan struct{})

	compute := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared answer", nil
	}

	const callers = 10
	results := make([]string, callers)
	sharedFlags := make([]bool, callers)

	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(n int) {
			defer wg.Done()
			started.Done()
			val, shared, err := g.Do(context.Background(), "fp", compute)
			if err != nil {
				t.Errorf("caller %d: unexpected error %v", n, err)
			}
			results[n] = val
			sharedFlags[n] = shared
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond) // let every caller attach
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 backend call, got %d", got)
	}

	owners := 0
	for i := 0; i < callers; i++ {
		if results[i] != "shared answer" {
			t.Errorf("caller %d got %q", i, results[i])
		}
		if !sharedFlags[i] {
			owners++
		}
	}
	if owners != 1 {
		t.Errorf("expected exactly 1 owner, got %d", owners)
	}
}

func TestGroup_ErrorSharedByAllWaiters(t *testing.T) {
	g := New[string]()
	wantErr := errors.New("upstream exploded")

	release := make(chan struct{})
	compute := func(ctx context.Context) (string, error) {
		<-release
		return "", wantErr
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := g.Do(context.Background(), "fp", compute)
			errs[n] = err
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, wantErr) {
			t.Errorf("caller %d: expected shared error, got %v", i, err)
		}
	}
}

func TestGroup_EntryRemovedAfterSettlement(t *testing.T) {
	g := New[int]()

	var calls atomic.Int32
	compute := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, _, err := g.Do(context.Background(), "fp", compute)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := g.Do(context.Background(), "fp", compute)
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Error("expected a fresh computation after settlement")
	}
	if g.InFlight() != 0 {
		t.Errorf("expected no in-flight entries, got %d", g.InFlight())
	}
}

func TestGroup_WaiterCancellationDoesNotCancelComputation(t *testing.T) {
	g := New[string]()

	computeStarted := make(chan struct{})
	release := make(chan struct{})
	var cancelled atomic.Bool

	compute := func(ctx context.Context) (string, error) {
		close(computeStarted)
		select {
		case <-ctx.Done():
			cancelled.Store(true)
			return "", ctx.Err()
		case <-release:
			return "survived", nil
		}
	}

	ownerCtx, cancelOwner := context.WithCancel(context.Background())

	ownerDone := make(chan error, 1)
	go func() {
		_, _, err := g.Do(ownerCtx, "fp", compute)
		ownerDone <- err
	}()

	<-computeStarted

	// A second caller attaches, then the owner walks away.
	waiterResult := make(chan string, 1)
	go func() {
		val, shared, err := g.Do(context.Background(), "fp", compute)
		if err != nil {
			t.Errorf("waiter: unexpected error %v", err)
		}
		if !shared {
			t.Error("waiter: expected to attach, not own")
		}
		waiterResult <- val
	}()

	time.Sleep(20 * time.Millisecond)
	cancelOwner()

	if err := <-ownerDone; !errors.Is(err, context.Canceled) {
		t.Errorf("owner: expected context.Canceled, got %v", err)
	}

	close(release)

	if val := <-waiterResult; val != "survived" {
		t.Errorf("waiter: expected computation to survive owner cancellation, got %q", val)
	}
	if cancelled.Load() {
		t.Error("shared computation observed cancellation")
	}
}

func TestGroup_DistinctKeysDoNotCollapse(t *testing.T) {
	g := New[string]()

	var calls atomic.Int32
	compute := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	}

	var wg sync.WaitGroup
	for _, key := range []string{"fp-a", "fp-b"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			g.Do(context.Background(), k, compute)
		}(key)
	}
	wg.Wait()

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 computations for distinct keys, got %d", got)
	}
}
