package socketio

import (
	"fmt"
	"testing"
)

func TestClientLimiterLoopbackUnlimited(t *testing.T) {
	l := NewClientLimiter(1)

	for i, addr := range []string{"127.0.0.1", "::1", "127.0.0.1:53122", "[::1]:8080", "127.0.0.2"} {
		if evicted := l.Admit(fmt.Sprintf("local-%d", i), addr); evicted != "" {
			t.Errorf("loopback %s should not evict anyone, got %s", addr, evicted)
		}
	}

	if evicted := l.Admit("ext-1", "192.168.1.100"); evicted != "" {
		t.Errorf("first external should fit under the cap, evicted %s", evicted)
	}
	if l.Count() != 6 {
		t.Errorf("expected 6 clients, got %d", l.Count())
	}
}

func TestClientLimiterEvictsOldestExternal(t *testing.T) {
	l := NewClientLimiter(2)

	l.Admit("first", "10.0.0.1")
	l.Admit("second", "10.0.0.2:4000")

	if evicted := l.Admit("third", "10.0.0.3"); evicted != "first" {
		t.Errorf("expected eviction of first, got %q", evicted)
	}
	if evicted := l.Admit("fourth", "10.0.0.4"); evicted != "second" {
		t.Errorf("expected eviction of second, got %q", evicted)
	}
}

func TestClientLimiterReleaseFreesSlot(t *testing.T) {
	l := NewClientLimiter(1)

	l.Admit("ext-1", "192.168.1.100")
	l.Release("ext-1")
	l.Release("ext-1")   // already released
	l.Release("missing") // never admitted

	if evicted := l.Admit("ext-2", "192.168.1.101"); evicted != "" {
		t.Errorf("should not evict after release freed a slot, got %s", evicted)
	}
}

func TestClientLimiterDuplicateAdmit(t *testing.T) {
	l := NewClientLimiter(1)

	l.Admit("ext-1", "192.168.1.100")
	if evicted := l.Admit("ext-1", "192.168.1.100"); evicted != "" {
		t.Errorf("duplicate admit should not evict, got %s", evicted)
	}
	if l.Count() != 1 {
		t.Errorf("expected 1 client, got %d", l.Count())
	}
}

func TestClientLimiterNoCap(t *testing.T) {
	l := NewClientLimiter(0)

	for i := 0; i < 20; i++ {
		if evicted := l.Admit(fmt.Sprintf("ext-%d", i), "10.1.1.1"); evicted != "" {
			t.Fatalf("uncapped limiter evicted %s", evicted)
		}
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		addr     string
		expected bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"[::1]:3001", true},
		{"::ffff:127.0.0.1", true},
		{"192.168.1.100", false},
		{"10.0.0.1:80", false},
		{"0.0.0.0", false},
		{"", false},
		{"not-an-ip", false},
	}

	for _, tc := range tests {
		if got := isLoopback(tc.addr); got != tc.expected {
			t.Errorf("isLoopback(%q) = %v, want %v", tc.addr, got, tc.expected)
		}
	}
}
