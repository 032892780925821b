package crawler

import (
	"errors"
	"testing"
)

func TestFrontierFIFO(t *testing.T) {
	f := NewFrontier()
	f.Push("https://a.test/", 0)
	f.Push("https://b.test/", 1)
	f.Push("https://c.test/", 2)

	if f.Len() != 3 {
		t.Fatalf("Len() = %d, expected 3", f.Len())
	}

	want := []URLInfo{
		{URL: "https://a.test/", Depth: 0},
		{URL: "https://b.test/", Depth: 1},
		{URL: "https://c.test/", Depth: 2},
	}
	for i, expected := range want {
		got, err := f.Pop()
		if err != nil {
			t.Fatalf("Pop() #%d returned error: %v", i, err)
		}
		if got != expected {
			t.Errorf("Pop() #%d = %+v, expected %+v", i, got, expected)
		}
	}

	if f.Len() != 0 {
		t.Errorf("Len() after draining = %d, expected 0", f.Len())
	}
}

func TestFrontierPopEmpty(t *testing.T) {
	f := NewFrontier()

	_, err := f.Pop()
	if !errors.Is(err, ErrEmptyFrontier) {
		t.Errorf("Pop() on empty frontier = %v, expected ErrEmptyFrontier", err)
	}
}

func TestFrontierTryPop(t *testing.T) {
	f := NewFrontier()

	if _, ok := f.TryPop(); ok {
		t.Error("TryPop() on empty frontier reported an item")
	}

	f.Push("https://a.test/x", 1)
	item, ok := f.TryPop()
	if !ok {
		t.Fatal("TryPop() found no item after Push")
	}
	if item.URL != "https://a.test/x" || item.Depth != 1 {
		t.Errorf("TryPop() = %+v, expected {https://a.test/x 1}", item)
	}
}
