package auth

import (
	"reflect"
	"testing"
)

func TestMissingScopes(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		granted  []string
		want     []string
	}{
		{
			name:     "all granted",
			required: []string{"issues.read", "issues.write"},
			granted:  []string{"issues.write", "issues.read"},
			want:     nil,
		},
		{
			name:     "wildcard grants everything",
			required: []string{"issues.read", "orders.write", "admin"},
			granted:  []string{Wildcard},
			want:     nil,
		},
		{
			name:     "partial deficit preserves required order",
			required: []string{"orders.write", "issues.read", "orders.read"},
			granted:  []string{"issues.read"},
			want:     []string{"orders.write", "orders.read"},
		},
		{
			name:     "nothing granted",
			required: []string{"issues.read"},
			granted:  nil,
			want:     []string{"issues.read"},
		},
		{
			name:     "nothing required",
			required: nil,
			granted:  nil,
			want:     nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MissingScopes(tc.required, tc.granted)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("MissingScopes(%v, %v) = %v, want %v", tc.required, tc.granted, got, tc.want)
			}
		})
	}
}
