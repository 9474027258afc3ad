package kiket

import (
	"context"
	"reflect"
	"testing"
)

func noopHandler(ctx context.Context, payload map[string]any, hc *HandlerContext) (any, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewHandlerRegistry()
	if err := r.Register("issue.created", noopHandler, "1.0", []string{"issues.read"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	meta, ok := r.Get("issue.created", "1.0")
	if !ok {
		t.Fatal("registered handler not found")
	}
	if meta.Version != "1.0" {
		t.Fatalf("version = %q", meta.Version)
	}
	if !reflect.DeepEqual(meta.RequiredScopes, []string{"issues.read"}) {
		t.Fatalf("scopes = %v", meta.RequiredScopes)
	}
}

func TestRegistryVersionTrimming(t *testing.T) {
	r := NewHandlerRegistry()
	if err := r.Register("issue.created", noopHandler, "  1.0  ", nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := r.Get("issue.created", "1.0"); !ok {
		t.Fatal("trimmed registration not found by clean version")
	}
	if _, ok := r.Get("issue.created", " 1.0 "); !ok {
		t.Fatal("lookup should trim before matching")
	}
}

func TestRegistryBlankVersionRejected(t *testing.T) {
	r := NewHandlerRegistry()
	if err := r.Register("issue.created", noopHandler, "   ", nil); err == nil {
		t.Fatal("blank version accepted")
	}
	if err := r.Register("issue.created", noopHandler, "", nil); err == nil {
		t.Fatal("empty version accepted")
	}
}

func TestRegistryGetMisses(t *testing.T) {
	r := NewHandlerRegistry()
	if err := r.Register("issue.created", noopHandler, "1.0", nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := r.Get("issue.created", "2.0"); ok {
		t.Fatal("unknown version resolved")
	}
	if _, ok := r.Get("order.submitted", "1.0"); ok {
		t.Fatal("unknown event resolved")
	}
	if _, ok := r.Get("issue.created", ""); ok {
		t.Fatal("empty version resolved")
	}
}

func TestRegistryVersionsIndependent(t *testing.T) {
	r := NewHandlerRegistry()
	marker := ""
	mk := func(tag string) Handler {
		return func(ctx context.Context, payload map[string]any, hc *HandlerContext) (any, error) {
			marker = tag
			return nil, nil
		}
	}

	if err := r.Register("order.submitted", mk("v1"), "1.0", nil); err != nil {
		t.Fatalf("register v1: %v", err)
	}
	if err := r.Register("order.submitted", mk("v2"), "2.0", nil); err != nil {
		t.Fatalf("register v2: %v", err)
	}

	meta, _ := r.Get("order.submitted", "2.0")
	if _, err := meta.Handler(context.Background(), nil, nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if marker != "v2" {
		t.Fatalf("wrong handler invoked: %q", marker)
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewHandlerRegistry()
	marker := ""
	first := func(ctx context.Context, payload map[string]any, hc *HandlerContext) (any, error) {
		marker = "first"
		return nil, nil
	}
	second := func(ctx context.Context, payload map[string]any, hc *HandlerContext) (any, error) {
		marker = "second"
		return nil, nil
	}

	if err := r.Register("issue.created", first, "1.0", nil); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := r.Register("issue.created", second, "1.0", nil); err != nil {
		t.Fatalf("register second: %v", err)
	}

	meta, _ := r.Get("issue.created", "1.0")
	if _, err := meta.Handler(context.Background(), nil, nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if marker != "second" {
		t.Fatalf("duplicate registration did not overwrite, invoked %q", marker)
	}
}

func TestRegistryEventNamesSorted(t *testing.T) {
	r := NewHandlerRegistry()
	for _, pair := range [][2]string{
		{"order.submitted", "2.0"},
		{"issue.created", "1.0"},
		{"order.submitted", "1.0"},
	} {
		if err := r.Register(pair[0], noopHandler, pair[1], nil); err != nil {
			t.Fatalf("register %v: %v", pair, err)
		}
	}

	want := []string{"issue.created@1.0", "order.submitted@1.0", "order.submitted@2.0"}
	if got := r.EventNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("EventNames() = %v, want %v", got, want)
	}
}
