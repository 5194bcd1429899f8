package revalidate

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := testHub()
	var got1, got2 []string
	h.Subscribe(func(paths []string) { got1 = paths })
	h.Subscribe(func(paths []string) { got2 = paths })

	h.Invalidate([]string{"/blog", "/blog/hello"})

	want := []string{"/blog", "/blog/hello"}
	if !reflect.DeepEqual(got1, want) || !reflect.DeepEqual(got2, want) {
		t.Errorf("subscribers got %v / %v, want %v", got1, got2, want)
	}
}

func TestHubSurvivesPanickingSubscriber(t *testing.T) {
	h := testHub()
	var delivered bool
	h.Subscribe(func([]string) { panic("boom") })
	h.Subscribe(func([]string) { delivered = true })

	h.Invalidate([]string{"/"})

	if !delivered {
		t.Error("later subscriber should still receive the invalidation")
	}
}

func TestHubIgnoresEmptyPaths(t *testing.T) {
	h := testHub()
	called := false
	h.Subscribe(func([]string) { called = true })
	h.Invalidate(nil)
	if called {
		t.Error("empty invalidation should not fan out")
	}
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = Nop{}
	n.Invalidate([]string{"/anything"}) // must not panic
}
