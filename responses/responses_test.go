package responses

import (
	"reflect"
	"testing"
)

func TestAllow(t *testing.T) {
	got := Allow("looks good", map[string]any{"score": 0.9}, map[string]string{"ticket_url": "https://example.com/t/1"})

	if got["status"] != StatusAllow {
		t.Fatalf("status = %v", got["status"])
	}
	if got["message"] != "looks good" {
		t.Fatalf("message = %v", got["message"])
	}
	metadata, _ := got["metadata"].(map[string]any)
	if metadata["score"] != 0.9 {
		t.Fatalf("metadata = %v", metadata)
	}
	fields, _ := metadata["output_fields"].(map[string]string)
	if fields["ticket_url"] != "https://example.com/t/1" {
		t.Fatalf("output_fields = %v", fields)
	}
}

func TestAllowOmitsEmptyMessage(t *testing.T) {
	got := Allow("", nil, nil)
	if _, present := got["message"]; present {
		t.Fatal("empty message should be omitted")
	}
	metadata, ok := got["metadata"].(map[string]any)
	if !ok || len(metadata) != 0 {
		t.Fatalf("metadata = %v", got["metadata"])
	}
}

func TestDeny(t *testing.T) {
	got := Deny("policy violation", map[string]any{"rule": "r1"})
	want := map[string]any{
		"status":   StatusDeny,
		"message":  "policy violation",
		"metadata": map[string]any{"rule": "r1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Deny = %v, want %v", got, want)
	}
}

func TestPendingNilData(t *testing.T) {
	got := Pending("queued", nil)
	if got["status"] != StatusPending || got["message"] != "queued" {
		t.Fatalf("Pending = %v", got)
	}
	if metadata, ok := got["metadata"].(map[string]any); !ok || metadata == nil {
		t.Fatalf("metadata should be an empty map, got %v", got["metadata"])
	}
}
