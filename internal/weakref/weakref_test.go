package weakref

import "testing"

type widget struct{ Owned[widget] }

func TestRefUpgradeTracksLiveness(t *testing.T) {
	w := &widget{}
	w.Init()
	ref := Of(w, &w.Owned)

	if _, ok := ref.Upgrade(); !ok {
		t.Fatal("expected a freshly initialized owner to be alive")
	}

	w.Kill()
	if _, ok := ref.Upgrade(); ok {
		t.Fatal("expected Upgrade to fail after Kill")
	}
}

func TestZeroRefNeverUpgrades(t *testing.T) {
	var ref Ref[widget]
	if !ref.IsZero() {
		t.Fatal("expected zero-value Ref to report IsZero")
	}
	if _, ok := ref.Upgrade(); ok {
		t.Fatal("expected zero-value Ref to never upgrade")
	}
}

func TestMultipleRefsShareOneOwner(t *testing.T) {
	w := &widget{}
	w.Init()
	a := Of(w, &w.Owned)
	b := Of(w, &w.Owned)

	w.Kill()
	if _, ok := a.Upgrade(); ok {
		t.Fatal("ref a should observe kill")
	}
	if _, ok := b.Upgrade(); ok {
		t.Fatal("ref b should observe the same kill")
	}
}
