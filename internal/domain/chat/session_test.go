package chat

import (
	"testing"
	"time"

	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
)

func TestSession_AppendAndRender(t *testing.T) {
	s := NewSession("s1", nil)
	s.Append("hi", true)
	s.Append("hello", false)
	s.Append("how are you", true)

	got := s.RenderInOrder()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	want := []string{"how are you", "hello", "hi"}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("message %d = %q, want %q", i, got[i].Text, w)
		}
	}
	if !got[0].IsUser || got[1].IsUser {
		t.Error("is_user flags not preserved")
	}
}

func TestSession_RenderDoesNotMutate(t *testing.T) {
	s := NewSession("s1", nil)
	s.Append("a", true)
	s.Append("b", false)

	first := s.RenderInOrder()
	first[0].Text = "changed"
	second := s.RenderInOrder()

	if second[0].Text != "b" {
		t.Errorf("render result aliases session state: %q", second[0].Text)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSession_Clear(t *testing.T) {
	s := NewSession("s1", nil)
	s.Append("a", true)
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}
	if len(s.RenderInOrder()) != 0 {
		t.Error("render after Clear not empty")
	}
	s.Append("b", true)
	if s.Len() != 1 {
		t.Errorf("Len() after re-append = %d", s.Len())
	}
}

func TestSession_UpdateTweaksReturnsCopy(t *testing.T) {
	s := NewSession("s1", tweaks.Map{tweaks.TribeInput: {}})
	sent := s.UpdateTweaks(func(m tweaks.Map) tweaks.Map {
		m.Set(tweaks.TribeInput, "4")
		return m
	})
	sent.Set(tweaks.TribeInput, "mutated")

	again := s.UpdateTweaks(func(m tweaks.Map) tweaks.Map { return m })
	if again.Value(tweaks.TribeInput) != "4" {
		t.Errorf("tribe = %q, want 4", again.Value(tweaks.TribeInput))
	}
}

func TestRegistry_OpenCreatesOnce(t *testing.T) {
	calls := 0
	r := NewRegistry(func() tweaks.Map {
		calls++
		return tweaks.Map{}
	})

	a := r.Open("x")
	b := r.Open("x")
	if a != b {
		t.Error("Open returned different sessions for the same id")
	}
	if calls != 1 {
		t.Errorf("base builder called %d times, want 1", calls)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d", r.Len())
	}
}

func TestRegistry_SessionsIsolated(t *testing.T) {
	r := NewRegistry(nil)
	r.Open("a").Append("from a", true)
	if r.Open("b").Len() != 0 {
		t.Error("sessions share state")
	}
}

func TestRegistry_Drop(t *testing.T) {
	r := NewRegistry(nil)
	r.Open("a").Append("x", true)
	r.Drop("a")
	if _, ok := r.Get("a"); ok {
		t.Error("session still present after Drop")
	}
	if r.Open("a").Len() != 0 {
		t.Error("reopened session kept old messages")
	}
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry(nil)
	old := r.Open("old")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	old.now = func() time.Time { return base }
	old.touch()

	fresh := r.Open("fresh")
	fresh.now = func() time.Time { return base.Add(50 * time.Minute) }
	fresh.touch()

	removed := r.Sweep(base.Add(time.Hour), 30*time.Minute)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := r.Get("old"); ok {
		t.Error("idle session not swept")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("active session swept")
	}
}
