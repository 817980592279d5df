package event

import "testing"

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	var e Emitter[int]
	var got []string

	e.Subscribe(func(v int) { got = append(got, "a") })
	e.Subscribe(func(v int) { got = append(got, "b") })
	e.Subscribe(func(v int) { got = append(got, "c") })

	e.Emit(1)

	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected delivery order a,b,c, got %v", got)
	}
}

func TestEmitterCancel(t *testing.T) {
	var e Emitter[string]
	count := 0

	cancel := e.Subscribe(func(string) { count++ })
	e.Emit("one")
	cancel()
	e.Emit("two")
	cancel() // second cancel is a no-op

	if count != 1 {
		t.Errorf("expected 1 delivery after cancel, got %d", count)
	}
}

func TestEmitterClose(t *testing.T) {
	var e Emitter[int]
	count := 0

	e.Subscribe(func(int) { count++ })
	e.Close()
	e.Emit(1)
	e.Close() // idempotent

	if count != 0 {
		t.Errorf("expected no deliveries after close, got %d", count)
	}
}

func TestEmitterZeroValueEmit(t *testing.T) {
	var e Emitter[int]
	e.Emit(42) // no subscribers, must not panic
}
