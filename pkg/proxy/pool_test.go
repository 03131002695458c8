package proxy

import "testing"

func TestNewPool_Validation(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		wantErr bool
	}{
		{"empty", nil, true},
		{"http", []string{"http://127.0.0.1:8080"}, false},
		{"socks5", []string{"socks5://127.0.0.1:1080"}, false},
		{"bad scheme", []string{"ftp://127.0.0.1:21"}, true},
		{"garbage", []string{"://nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPool(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPool(%v) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestPool_RoundRobin(t *testing.T) {
	p, err := NewPool([]string{"http://a:1", "http://b:2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first.String() == second.String() {
		t.Error("expected rotation between distinct proxies")
	}
	if first.String() != third.String() {
		t.Error("expected rotation to wrap around")
	}
}

func TestPool_SkipsDeadProxy(t *testing.T) {
	p, err := NewPool([]string{"http://a:1", "http://b:2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dead := p.Next()
	for i := 0; i < maxConsecutiveFailures; i++ {
		p.MarkFailure(dead)
	}

	for i := 0; i < 4; i++ {
		if got := p.Next(); got.String() == dead.String() {
			t.Fatalf("dead proxy %s should be skipped", dead)
		}
	}
}

func TestPool_ResetsWhenAllDead(t *testing.T) {
	p, err := NewPool([]string{"http://a:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := p.Next()
	for i := 0; i < maxConsecutiveFailures; i++ {
		p.MarkFailure(u)
	}

	if got := p.Next(); got == nil {
		t.Fatal("pool must keep handing out proxies even when all have failed")
	}
}

func TestPool_MarkSuccessClearsStreak(t *testing.T) {
	p, err := NewPool([]string{"http://a:1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := p.Next()
	p.MarkFailure(u)
	p.MarkFailure(u)
	p.MarkSuccess(u)
	p.MarkFailure(u)

	if got := p.Next(); got.String() != u.String() {
		t.Error("proxy with a cleared streak should stay in rotation")
	}
}
