package events

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/bedrockd/internal/bedrock"
)

func logEvent(msg string) bedrock.LogEvent {
	return bedrock.LogEvent{Time: time.Now(), Message: msg, Type: "INFO"}
}

func messages(t *testing.T, evs []bedrock.Event) []string {
	t.Helper()
	out := make([]string, len(evs))
	for i, ev := range evs {
		le, ok := ev.(bedrock.LogEvent)
		if !ok {
			t.Fatalf("event %d is %T, want LogEvent", i, ev)
		}
		out[i] = le.Message
	}
	return out
}

func receive(t *testing.T, s *Subscription) Record {
	t.Helper()
	select {
	case rec := <-s.Events():
		return rec
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Record{}
	}
}

func expectNone(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case rec := <-s.Events():
		t.Fatalf("unexpected event: %#v", rec)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_SnapshotKeepsLastN(t *testing.T) {
	bus := New(WithReplaySize(3))
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		bus.Publish(logEvent(m))
	}

	got := messages(t, bus.Snapshot())
	want := []string{"c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBus_SnapshotEmpty(t *testing.T) {
	bus := New()
	if got := bus.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
}

func TestBus_ReplayThenLive(t *testing.T) {
	bus := New(WithReplaySize(2))
	bus.Publish(logEvent("1"))
	bus.Publish(logEvent("2"))
	bus.Publish(logEvent("3"))

	sub := bus.Subscribe()
	defer sub.Close()

	replay := sub.Replay()
	if len(replay) != 2 {
		t.Fatalf("expected 2 replayed records, got %d", len(replay))
	}
	if replay[0].Seq != 2 || replay[1].Seq != 3 {
		t.Errorf("replay seqs = %d,%d, want 2,3", replay[0].Seq, replay[1].Seq)
	}

	bus.Publish(logEvent("4"))
	bus.Publish(logEvent("5"))

	for _, wantSeq := range []uint64{4, 5} {
		rec := receive(t, sub)
		if rec.Seq != wantSeq {
			t.Fatalf("live seq = %d, want %d (gap or duplicate at boundary)", rec.Seq, wantSeq)
		}
	}
	expectNone(t, sub)
}

func TestBus_MultipleSubscribersSeeSameOrder(t *testing.T) {
	bus := New(WithQueueSize(200))
	subs := []*Subscription{bus.Subscribe(), bus.Subscribe(), bus.Subscribe()}
	for _, s := range subs {
		defer s.Close()
	}

	const total = 100
	for i := range total {
		bus.Publish(bedrock.PlayerConnected{
			Time:   time.Now(),
			Player: bedrock.Player{Username: "p", XUID: string(rune('0' + i%10))},
		})
	}

	for n, s := range subs {
		for i := 1; i <= total; i++ {
			if rec := receive(t, s); rec.Seq != uint64(i) {
				t.Fatalf("subscriber %d: seq = %d, want %d", n, rec.Seq, i)
			}
		}
	}
}

func TestBus_SlowSubscriberDropsNewest(t *testing.T) {
	var drops atomic.Int64
	bus := New(WithQueueSize(2), WithDropHandler(func() { drops.Add(1) }))

	slow := bus.Subscribe()
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := range 5 {
			bus.Publish(logEvent(string(rune('a' + i))))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a saturated subscriber")
	}

	deadline := time.Now().Add(time.Second)
	for slow.Dropped() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if slow.Dropped() != 3 {
		t.Fatalf("Dropped() = %d, want 3", slow.Dropped())
	}
	if drops.Load() != 3 {
		t.Errorf("drop handler called %d times, want 3", drops.Load())
	}

	// The queue kept the oldest two; the newer ones were dropped.
	first, second := receive(t, slow), receive(t, slow)
	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("kept seqs %d,%d, want 1,2", first.Seq, second.Seq)
	}

	// Replay is unaffected by per-subscriber drops.
	if got := len(bus.Snapshot()); got != 5 {
		t.Errorf("snapshot length = %d, want 5", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()

	bus.Publish(logEvent("before"))
	receive(t, sub)

	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}

	bus.Publish(logEvent("after"))
	expectNone(t, sub)
}

func TestBus_CloseEndsSubscriptions(t *testing.T) {
	bus := New()
	a, b := bus.Subscribe(), bus.Subscribe()

	bus.Close()

	for _, s := range []*Subscription{a, b} {
		select {
		case <-s.Done():
		case <-time.After(time.Second):
			t.Fatal("subscription not closed by Bus.Close")
		}
	}

	late := bus.Subscribe()
	select {
	case <-late.Done():
	default:
		t.Fatal("subscription on a closed bus should be done immediately")
	}

	bus.Publish(logEvent("kept"))
	if got := len(bus.Snapshot()); got != 1 {
		t.Errorf("snapshot length after close = %d, want 1", got)
	}
}

func TestBus_CloseStopsDispatcher(t *testing.T) {
	before := runtime.NumGoroutine()

	for range 20 {
		bus := New()
		s := bus.Subscribe()
		bus.Publish(logEvent("x"))
		s.Close()
		bus.Close()
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+2 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines before=%d after=%d, dispatcher goroutines leaked", before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBus_ConcurrentSubscribeNoGap(t *testing.T) {
	bus := New(WithReplaySize(1000), WithQueueSize(1000))
	const total = 500

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range total {
			bus.Publish(logEvent(string(rune('a' + i%26))))
		}
	}()

	time.Sleep(time.Millisecond)
	sub := bus.Subscribe()
	defer sub.Close()
	wg.Wait()

	var last uint64
	for _, rec := range sub.Replay() {
		if last != 0 && rec.Seq != last+1 {
			t.Fatalf("replay gap: %d after %d", rec.Seq, last)
		}
		last = rec.Seq
	}
	for last < total {
		rec := receive(t, sub)
		if last != 0 && rec.Seq != last+1 {
			t.Fatalf("boundary gap or duplicate: %d after %d", rec.Seq, last)
		}
		last = rec.Seq
	}
}
