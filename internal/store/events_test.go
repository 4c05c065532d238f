package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/mockboard/internal/model"
)

// TestSubscribe_NotifiesOnEveryMutation は状態変更ごとに1回通知されることを検証する。
func TestSubscribe_NotifiesOnEveryMutation(t *testing.T) {
	s := newTestStore(t)

	var kinds []EventKind
	s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	alice := mustRegister(t, s, "alice")
	p := mustCreatePost(t, s, alice.ID)
	s.VotePost(alice.ID, p.ID, model.VoteUp)
	c, _ := s.CreateComment(alice.ID, p.ID, "hello", "")
	s.VoteComment(alice.ID, c.ID, model.VoteUp)
	s.DeleteComment(alice.ID, c.ID)
	s.DeletePost(alice.ID, p.ID)
	s.Reset()

	want := []EventKind{
		EventUserRegistered,
		EventPostCreated,
		EventPostVoted,
		EventCommentCreated,
		EventCommentVoted,
		EventCommentDeleted,
		EventPostDeleted,
		EventStoreReset,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_NoEventOnFailure(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	s.Subscribe(func(Event) { calls++ })

	s.RegisterUser("al", "bad", "1")
	s.CreatePost("", "Hello World", "This is a test post")
	s.Authenticate("nobody", "secret1")

	if calls != 0 {
		t.Errorf("listener called %d times, want 0", calls)
	}
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s := newTestStore(t)

	var order []string
	s.Subscribe(func(Event) { order = append(order, "first") })
	unsubscribe := s.Subscribe(func(Event) { order = append(order, "second") })
	s.Subscribe(func(Event) { order = append(order, "third") })

	s.Notify(Event{Kind: EventStoreReset})
	if diff := cmp.Diff([]string{"first", "second", "third"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	unsubscribe()

	order = nil
	s.Notify(Event{Kind: EventStoreReset})
	if diff := cmp.Diff([]string{"first", "third"}, order); diff != "" {
		t.Errorf("after unsubscribe (-want +got):\n%s", diff)
	}
}

// TestSubscribe_ListenerCanReadStore はリスナー内からStoreを読み出してもデッドロックしないことを検証する。
func TestSubscribe_ListenerCanReadStore(t *testing.T) {
	s := newTestStore(t)

	var seen Counts
	s.Subscribe(func(Event) { seen = s.Counts() })

	alice := mustRegister(t, s, "alice")
	mustCreatePost(t, s, alice.ID)

	if seen.Users != 1 || seen.Posts != 1 {
		t.Errorf("counts seen by listener = %+v", seen)
	}
}

func TestSubscribe_EventCarriesIDs(t *testing.T) {
	s := newTestStore(t)
	alice := mustRegister(t, s, "alice")

	var got Event
	s.Subscribe(func(ev Event) { got = ev })

	p := mustCreatePost(t, s, alice.ID)

	want := Event{Kind: EventPostCreated, ID: p.ID, ActorID: alice.ID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}
