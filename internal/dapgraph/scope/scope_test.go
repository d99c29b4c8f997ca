package scope

import "testing"

func TestCancelRunsCleanupsLIFO(t *testing.T) {
	s := New()
	var order []int
	s.Register(func() { order = append(order, 1) })
	s.Register(func() { order = append(order, 2) })
	s.Register(func() { order = append(order, 3) })

	s.Cancel()

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestCancelParentCancelsChildren(t *testing.T) {
	parent := New()
	child := parent.NewChild()
	grandchild := child.NewChild()

	var ran bool
	grandchild.Register(func() { ran = true })

	parent.Cancel()

	if !ran {
		t.Fatal("grandchild cleanup did not run")
	}
	if !child.IsCancelled() || !grandchild.IsCancelled() {
		t.Fatal("descendants not marked cancelled")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s := New()
	calls := 0
	s.Register(func() { calls++ })

	s.Cancel()
	s.Cancel()

	if calls != 1 {
		t.Fatalf("cleanup ran %d times, want 1", calls)
	}
}

func TestHandleCancelRemovesJustThatRegistration(t *testing.T) {
	s := New()
	var order []int
	h1 := s.Register(func() { order = append(order, 1) })
	s.Register(func() { order = append(order, 2) })

	h1.Cancel()
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("individual cancel did not run: %v", order)
	}

	order = nil
	s.Cancel()
	if len(order) != 1 || order[0] != 2 {
		t.Fatalf("scope cancel re-ran or skipped: %v", order)
	}
}

func TestRegisterOnCancelledScopeRunsImmediately(t *testing.T) {
	s := New()
	s.Cancel()

	ran := false
	s.Register(func() { ran = true })

	if !ran {
		t.Fatal("cleanup registered on a cancelled scope did not run immediately")
	}
}

func TestNewChildOfCancelledScopeIsCancelled(t *testing.T) {
	s := New()
	s.Cancel()

	child := s.NewChild()
	if !child.IsCancelled() {
		t.Fatal("child of cancelled scope should start cancelled")
	}
}
