package cache

import (
	"context"
	"testing"
	"time"
)

func TestFactory_New_Memory(t *testing.T) {
	c, err := New("memory", Options{Size: 100, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New memory: %v", err)
	}
	defer c.Close()

	c.Set(context.Background(), "test", []byte("data"))
	val, ok := c.Get(context.Background(), "test")
	if !ok || string(val) != "data" {
		t.Fatal("Memory cache should work after creation via factory")
	}
}

func TestFactory_New_UnknownBackend(t *testing.T) {
	if _, err := New("nonexistent", Options{}); err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

func TestFactory_RegisteredBackends(t *testing.T) {
	names := RegisteredBackends()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["memory"] || !found["redis"] {
		t.Fatalf("Expected memory and redis backends, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Backends not sorted: %v", names)
			break
		}
	}
}

func TestFactory_Register_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic when registering memory twice")
		}
	}()
	Register("memory", newMemoryCache)
}

func TestFactory_Register_Nil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil backend")
		}
	}()
	Register("nil-backend", nil)
}

func TestFactory_New_Redis_InvalidAddress(t *testing.T) {
	_, err := New("redis", Options{
		Size:         10,
		TTL:          time.Hour,
		RedisAddress: "127.0.0.1:1",
	})
	if err == nil {
		t.Fatal("Expected error connecting to an unreachable Redis")
	}
}
