package service

import (
	"errors"
	"testing"
	"time"
)

func TestScreenOpenGetClose(t *testing.T) {
	bus := NewEventBus()
	svc := NewScreenService(NewLocationService(), bus, 0)

	m := svc.Open()
	got, err := svc.Get(m.Screen())
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatal("Get returned a different view-model")
	}

	ch := bus.Subscribe(m.Screen())
	defer bus.Unsubscribe(ch)

	if err := svc.Close(m.Screen()); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-ch:
		if ev.Kind != ChangeClosed {
			t.Fatalf("kind=%q, want closed", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no close event")
	}

	if _, err := svc.Get(m.Screen()); !errors.Is(err, ErrScreenNotFound) {
		t.Fatalf("err=%v, want ErrScreenNotFound", err)
	}
	if err := svc.Close(m.Screen()); !errors.Is(err, ErrScreenNotFound) {
		t.Fatalf("err=%v, want ErrScreenNotFound", err)
	}
}

func TestScreensAreIndependent(t *testing.T) {
	svc := NewScreenService(NewLocationService(), nil, 0)
	a, b := svc.Open(), svc.Open()

	teatro, _ := svc.Locations().FindByTitle("Teatro di San Carlo")
	a.Select(&teatro)
	a.CenterOnCity()

	if _, ok := b.Selected(); ok {
		t.Fatal("selection leaked across screens")
	}
	if b.Viewport().Mode != CameraAutomatic {
		t.Fatal("viewport leaked across screens")
	}
}

func TestScreenEviction(t *testing.T) {
	svc := NewScreenService(NewLocationService(), nil, 2)
	clock := time.Unix(0, 0)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	var opened, closed int
	svc.OnOpen = func() { opened++ }
	svc.OnClose = func() { closed++ }

	first := svc.Open()
	second := svc.Open()
	if _, err := svc.Get(first.Screen()); err != nil {
		t.Fatal(err)
	}
	third := svc.Open()

	if svc.Len() != 2 {
		t.Fatalf("len=%d, want 2", svc.Len())
	}
	if _, err := svc.Get(second.Screen()); !errors.Is(err, ErrScreenNotFound) {
		t.Fatal("least recently used screen should be evicted")
	}
	for _, m := range []*MapViewModel{first, third} {
		if _, err := svc.Get(m.Screen()); err != nil {
			t.Fatalf("screen %s: %v", m.Screen(), err)
		}
	}
	if opened != 3 || closed != 1 {
		t.Fatalf("opened=%d closed=%d, want 3/1", opened, closed)
	}
}

func TestEventBusFiltersByScreen(t *testing.T) {
	bus := NewEventBus()
	mine := bus.Subscribe("a")
	all := bus.Subscribe("")
	defer bus.Unsubscribe(mine)
	defer bus.Unsubscribe(all)

	bus.Publish(Event{Screen: "b", Kind: ChangeSelection})
	bus.Publish(Event{Screen: "a", Kind: ChangeViewport})

	if ev := <-mine; ev.Screen != "a" {
		t.Fatalf("screen=%q, want a", ev.Screen)
	}
	if ev := <-all; ev.Screen != "b" {
		t.Fatalf("screen=%q, want b", ev.Screen)
	}
	if ev := <-all; ev.Screen != "a" {
		t.Fatalf("screen=%q, want a", ev.Screen)
	}
	if n := bus.Subscribers(); n != 2 {
		t.Fatalf("subscribers=%d, want 2", n)
	}
}

func TestEventBusUnsubscribeTwice(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("a")
	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
}

func TestEventBusDeliversClosedToFullSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("s1")
	defer bus.Unsubscribe(ch)

	for range cap(ch) {
		bus.Publish(Event{Screen: "s1", Kind: ChangeSelection})
	}
	// Dropped: the buffer is full.
	bus.Publish(Event{Screen: "s1", Kind: ChangeViewport})

	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Screen: "s1", Kind: ChangeClosed})
		close(done)
	}()

	var last Event
	for range cap(ch) + 1 {
		select {
		case last = <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out draining events")
		}
	}
	if last.Kind != ChangeClosed {
		t.Fatalf("last event=%q, want %q", last.Kind, ChangeClosed)
	}
	<-done
}
