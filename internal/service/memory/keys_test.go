package memory

import (
	"strings"
	"testing"
)

func TestDedupKey_Deterministic(t *testing.T) {
	t.Parallel()
	a := DedupKey("s1", "user", "hello")
	b := DedupKey("s1", "user", "hello")
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestDedupKey_FieldBoundaries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a    [3]string
		b    [3]string
	}{
		{
			name: "different content",
			a:    [3]string{"s1", "user", "hello"},
			b:    [3]string{"s1", "user", "hello!"},
		},
		{
			name: "different role",
			a:    [3]string{"s1", "user", "hello"},
			b:    [3]string{"s1", "assistant", "hello"},
		},
		{
			name: "different session",
			a:    [3]string{"s1", "user", "hello"},
			b:    [3]string{"s2", "user", "hello"},
		},
		{
			name: "shifted field boundary",
			a:    [3]string{"ab", "c", "d"},
			b:    [3]string{"a", "bc", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := DedupKey(tt.a[0], tt.a[1], tt.a[2])
			kb := DedupKey(tt.b[0], tt.b[1], tt.b[2])
			if ka == kb {
				t.Errorf("expected different keys for %v and %v", tt.a, tt.b)
			}
		})
	}
}

func TestFactKey_Format(t *testing.T) {
	t.Parallel()
	key := FactKey("identity", "my name is arpit")
	if !strings.HasPrefix(key, "identity_") {
		t.Errorf("expected category prefix, got %s", key)
	}
	if len(key) != len("identity_")+8 {
		t.Errorf("expected 8-char hash suffix, got %s", key)
	}

	// Same normalized text, same key
	if key != FactKey("identity", "my name is arpit") {
		t.Error("fact key is not deterministic")
	}
	// Different category shifts the key even for identical text
	if key == FactKey("general", "my name is arpit") {
		t.Error("expected category to be part of the key")
	}
}
