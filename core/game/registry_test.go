package game

import "testing"

func TestRegistryCreateGetRemove(t *testing.T) {
	r := NewSessionRegistry()
	s, c, _ := newTestSession(5)

	token := r.Create(s)
	if token == "" {
		t.Fatal("empty session token")
	}

	got, ok := r.Get(token)
	if !ok || got != s {
		t.Fatal("Get did not return the registered session")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	// Remove先注销会话再移除映射，缓存引用随之释放
	r.Remove(token)
	if _, ok := r.Get(token); ok {
		t.Fatal("session still reachable after Remove")
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("cache entries = %d after Remove, want 0", got)
	}

	// 重复Remove是空操作
	r.Remove(token)
	if r.Len() != 0 {
		t.Fatalf("Len = %d after double Remove, want 0", r.Len())
	}
}

func TestRegistryTokensAreUnique(t *testing.T) {
	r := NewSessionRegistry()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		s, _, _ := newTestSession(1)
		token := r.Create(s)
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
}

func TestRegistryGetUnknownToken(t *testing.T) {
	r := NewSessionRegistry()
	if _, ok := r.Get("deadbeef"); ok {
		t.Fatal("unknown token resolved to a session")
	}
}
