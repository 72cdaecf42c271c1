package broadcast

import (
	"fmt"
	"testing"
)

func TestPublishDeliversInOrder(t *testing.T) {
	b := New(64)
	sub := b.Subscribe()

	for i := 0; i < 10; i++ {
		b.Publish(TagScanned(fmt.Sprintf("tag-%d", i), "", ""))
	}

	for i := 0; i < 10; i++ {
		e := <-sub.Events()
		if want := fmt.Sprintf("tag-%d", i); e.Tag != want {
			t.Fatalf("event %d tag = %q; want %q", i, e.Tag, want)
		}
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	b := New(10)
	slow := b.Subscribe() // never drained; queue smaller than the burst
	healthy := b.Subscribe()

	go func() {
		for i := 0; i < 50; i++ {
			b.Publish(TagScanned(fmt.Sprintf("tag-%d", i), "", ""))
		}
	}()

	// The healthy subscriber drains as events arrive and must see all
	// 50 in order.
	for i := 0; i < 50; i++ {
		e, ok := <-healthy.Events()
		if !ok {
			t.Fatalf("healthy subscriber dropped at event %d", i)
		}
		if want := fmt.Sprintf("tag-%d", i); e.Tag != want {
			t.Fatalf("event %d tag = %q; want %q", i, e.Tag, want)
		}
	}

	// The slow subscriber's channel must have been closed once its
	// queue filled.
	received := 0
	for range slow.Events() {
		received++
	}
	if received >= 50 {
		t.Fatalf("slow subscriber received %d events; expected a drop", received)
	}
	if b.SubscriberCount() != 1 {
		t.Fatalf("subscriber count = %d; want 1 after drop", b.SubscriberCount())
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	if _, ok := <-sub.Events(); ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	// Double unsubscribe must be safe.
	b.Unsubscribe(sub)

	b.Publish(MappingsUpdated()) // no subscribers: must not panic
}

func TestReaderStatusPayload(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()

	b.Publish(ReaderStatus(false))
	e := <-sub.Events()
	if e.Name != EventReaderStatus || e.Available == nil || *e.Available {
		t.Fatalf("event = %+v; want reader_status available=false", e)
	}
}

func TestCloseDropsAll(t *testing.T) {
	b := New(4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Close()

	if _, ok := <-s1.Events(); ok {
		t.Fatal("s1 channel should be closed")
	}
	if _, ok := <-s2.Events(); ok {
		t.Fatal("s2 channel should be closed")
	}
	b.Publish(MappingsUpdated()) // after close: no-op

	if sub := b.Subscribe(); sub == nil {
		t.Fatal("Subscribe after close should return a closed subscriber, not nil")
	}
}
