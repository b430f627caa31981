package todo

import (
	"strings"
	"testing"
	"time"
)

func TestNewIDEmbedsCreationTime(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 0, 0, 123_000_000, time.UTC)

	id := NewID(now)
	if len(id) != idTimestampDigits+3 {
		t.Fatalf("NewID() = %q, want %d characters", id, idTimestampDigits+3)
	}
	if !strings.HasPrefix(id, "1718006400123") {
		t.Errorf("NewID() = %q, want epoch-millis prefix 1718006400123", id)
	}
	if got := InferTimestamp(id, time.Time{}); !got.Equal(now) {
		t.Errorf("InferTimestamp(NewID(now)) = %v, want %v", got, now)
	}
}

func TestInferTimestamp(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		id   string
		want time.Time
	}{
		{"1700000000000123", time.UnixMilli(1700000000000).UTC()},
		{"1700000000000", time.UnixMilli(1700000000000).UTC()},
		{"42", time.UnixMilli(42).UTC()},
		{"", now},
		{"abc", now},
		{"0000000000000999", now},
		{"17000000000x0123", now},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := InferTimestamp(tt.id, now); !got.Equal(tt.want) {
				t.Errorf("InferTimestamp(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
