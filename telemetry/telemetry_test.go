package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestReporterPostsRecord(t *testing.T) {
	var mu sync.Mutex
	var received []Record
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode posted record: %v", err)
		}
		mu.Lock()
		received = append(received, rec)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	reporter := NewReporter(Options{
		Enabled:          true,
		URL:              server.URL,
		ExtensionID:      "ext_1",
		ExtensionVersion: "0.9.0",
	})

	reporter.Record(context.Background(), "issue.created", "1.0", StatusOK, 125*time.Millisecond, nil)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("received %d records", len(received))
	}
	rec := received[0]
	if rec.Event != "issue.created" || rec.Version != "1.0" || rec.Status != StatusOK {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ExtensionID != "ext_1" || rec.ExtensionVersion != "0.9.0" {
		t.Fatalf("extension identity = %s@%s", rec.ExtensionID, rec.ExtensionVersion)
	}
	if rec.DurationMS != 125 {
		t.Fatalf("duration_ms = %v", rec.DurationMS)
	}
	if rec.ID == "" {
		t.Fatal("record missing ID")
	}
}

func TestReporterDistinctRecordIDs(t *testing.T) {
	seen := map[string]bool{}
	var mu sync.Mutex
	reporter := NewReporter(Options{
		Enabled: true,
		Hook: func(ctx context.Context, record Record) error {
			mu.Lock()
			seen[record.ID] = true
			mu.Unlock()
			return nil
		},
	})

	for i := 0; i < 5; i++ {
		reporter.Record(context.Background(), "e", "1.0", StatusOK, time.Millisecond, nil)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct IDs, got %d", len(seen))
	}
}

func TestReporterDisabled(t *testing.T) {
	called := false
	reporter := NewReporter(Options{
		Enabled: false,
		Hook: func(ctx context.Context, record Record) error {
			called = true
			return nil
		},
	})
	reporter.Record(context.Background(), "e", "1.0", StatusOK, time.Millisecond, nil)
	if called {
		t.Fatal("disabled reporter delivered a record")
	}
}

func TestReporterOptOutEnv(t *testing.T) {
	for _, value := range []string{"1", "true", "YES", " on "} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("KIKET_SDK_TELEMETRY_OPTOUT", value)
			reporter := NewReporter(Options{Enabled: true})
			if reporter.Enabled() {
				t.Fatalf("optout %q did not disable telemetry", value)
			}
		})
	}

	t.Run("falsy value keeps enabled", func(t *testing.T) {
		t.Setenv("KIKET_SDK_TELEMETRY_OPTOUT", "0")
		reporter := NewReporter(Options{Enabled: true})
		if !reporter.Enabled() {
			t.Fatal("falsy optout disabled telemetry")
		}
	})
}

func TestReporterURLFromEnv(t *testing.T) {
	var mu sync.Mutex
	count := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
	}))
	defer server.Close()

	t.Setenv("KIKET_SDK_TELEMETRY_URL", server.URL)
	reporter := NewReporter(Options{Enabled: true})
	reporter.Record(context.Background(), "e", "1.0", StatusOK, time.Millisecond, nil)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("env-configured endpoint received %d posts", count)
	}
}

func TestReporterSwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reporter := NewReporter(Options{
		Enabled: true,
		URL:     server.URL,
		Hook: func(ctx context.Context, record Record) error {
			return errors.New("hook failed")
		},
	})

	// Must return normally despite both legs failing.
	reporter.Record(context.Background(), "e", "1.0", StatusError, time.Millisecond, nil)
}

func TestReporterSwallowsHookPanic(t *testing.T) {
	reporter := NewReporter(Options{
		Enabled: true,
		Hook: func(ctx context.Context, record Record) error {
			panic("hook exploded")
		},
	})
	reporter.Record(context.Background(), "e", "1.0", StatusOK, time.Millisecond, nil)
}
