package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("got %v %v", v, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New(30 * time.Millisecond)
	defer c.Stop()

	c.Set("k", "v")
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should miss")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("other key should survive Delete")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("Clear should drop everything")
	}
}

func TestOverwrite(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("k", 1)
	c.Set("k", 2)
	v, _ := c.Get("k")
	if v.(int) != 2 {
		t.Errorf("got %v, want 2", v)
	}
}
