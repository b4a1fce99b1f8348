package offline_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/offline"
	"github.com/goliatone/go-views/pkg/viewengine"
)

// stubEngine records how often it is consulted; Resolve always misses.
type stubEngine struct {
	name     string
	resolves atomic.Int64
}

var _ viewengine.Engine = (*stubEngine)(nil)

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Resolve(string) (viewengine.View, error) {
	e.resolves.Add(1)
	return nil, nil
}

func TestServiceForConcurrent(t *testing.T) {
	service := offline.NewService()
	b := stubBundle(t, "emails")

	const callers = 64

	var (
		start sync.WaitGroup
		done  sync.WaitGroup
	)
	start.Add(1)

	renderers := make([]*offline.Renderer, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			renderers[i], errs[i] = service.For(b)
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if renderers[i] != renderers[0] {
			t.Fatalf("caller %d observed a different renderer instance", i)
		}
	}

	if got := len(service.Engines()); got != 1 {
		t.Fatalf("engine chain: want 1 registration, got %d", got)
	}
}

func TestServiceForDistinctBundles(t *testing.T) {
	service := offline.NewService()

	first := stubBundle(t, "emails")
	second := stubBundle(t, "reports")

	ra, err := service.For(first)
	if err != nil {
		t.Fatalf("for first: %v", err)
	}
	rb, err := service.For(second)
	if err != nil {
		t.Fatalf("for second: %v", err)
	}
	if ra == rb {
		t.Fatal("distinct bundles share a renderer")
	}

	engines := service.Engines()
	if len(engines) != 2 {
		t.Fatalf("engine chain: want 2, got %d", len(engines))
	}
	// latest registration sits at the front of the chain
	if engines[0] != second.Engine() {
		t.Fatal("engine chain: newest engine is not first")
	}
}

func TestServiceSharedEngineRegisteredOnce(t *testing.T) {
	service := offline.NewService()
	engine := &stubEngine{name: "shared"}

	first, err := bundle.New("emails", engine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	second, err := bundle.New("reports", engine)
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}

	if _, err := service.For(first); err != nil {
		t.Fatalf("for first: %v", err)
	}
	if _, err := service.For(second); err != nil {
		t.Fatalf("for second: %v", err)
	}

	if got := len(service.Engines()); got != 1 {
		t.Fatalf("engine chain: want shared engine once, got %d entries", got)
	}
}

func TestRegisterEngineIdempotent(t *testing.T) {
	service := offline.NewService()
	engine := &stubEngine{name: "eager"}

	if err := service.RegisterEngine(engine); err != nil {
		t.Fatalf("register engine: %v", err)
	}
	if err := service.RegisterEngine(engine); err != nil {
		t.Fatalf("re-register engine: %v", err)
	}
	if got := len(service.Engines()); got != 1 {
		t.Fatalf("engine chain: want 1, got %d", got)
	}

	if err := service.RegisterEngine(nil); err == nil {
		t.Fatal("register nil engine: want error")
	}
}

func TestServiceClose(t *testing.T) {
	service := offline.NewService()
	b := stubBundle(t, "emails")

	if _, err := service.For(b); err != nil {
		t.Fatalf("for: %v", err)
	}
	if err := service.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := service.For(b); !errors.Is(err, offline.ErrServiceClosed) {
		t.Fatalf("for after close: want ErrServiceClosed, got %v", err)
	}
	if err := service.RegisterEngine(&stubEngine{name: "late"}); !errors.Is(err, offline.ErrServiceClosed) {
		t.Fatalf("register after close: want ErrServiceClosed, got %v", err)
	}
	if got := len(service.Engines()); got != 0 {
		t.Fatalf("engine chain after close: want empty, got %d", got)
	}
}

func TestDefaultIsShared(t *testing.T) {
	if offline.Default() != offline.Default() {
		t.Fatal("Default returned distinct services")
	}
}

func stubBundle(t *testing.T, name string) *bundle.Bundle {
	t.Helper()

	b, err := bundle.New(name, &stubEngine{name: name})
	if err != nil {
		t.Fatalf("new bundle: %v", err)
	}
	return b
}
