package service

import (
	"testing"

	"github.com/bloodlink/bloodlink/internal/domain"
)

func donor(id string) domain.Identity {
	return domain.Identity{Kind: domain.KindDonor, ID: id}
}

func TestSendToReachesOnlyListedIdentities(t *testing.T) {
	registry := NewConnectionRegistry()

	chAlice := make(chan domain.Event, 1)
	chBob := make(chan domain.Event, 1)
	registry.Register(donor("alice"), chAlice)
	registry.Register(donor("bob"), chBob)

	registry.SendTo([]domain.Identity{donor("alice")}, domain.Event{Type: domain.EventNewRequest, RequestID: "r1"})

	select {
	case event := <-chAlice:
		if event.RequestID != "r1" {
			t.Fatalf("wrong event delivered: %+v", event)
		}
	default:
		t.Fatalf("alice should have received the event")
	}

	select {
	case event := <-chBob:
		t.Fatalf("bob should not have received anything, got %+v", event)
	default:
	}
}

func TestSendToSkipsDisconnectedIdentity(t *testing.T) {
	registry := NewConnectionRegistry()

	// must not panic or block
	registry.SendTo([]domain.Identity{donor("ghost")}, domain.Event{Type: domain.EventNewRequest})
}

func TestBroadcastReachesEveryone(t *testing.T) {
	registry := NewConnectionRegistry()

	chAlice := make(chan domain.Event, 1)
	chBob := make(chan domain.Event, 1)
	registry.Register(donor("alice"), chAlice)
	registry.Register(donor("bob"), chBob)

	registry.Broadcast(domain.Event{Type: domain.EventStatusChanged, RequestID: "r1"})

	for name, ch := range map[string]chan domain.Event{"alice": chAlice, "bob": chBob} {
		select {
		case event := <-ch:
			if event.Type != domain.EventStatusChanged {
				t.Fatalf("%s got wrong event: %+v", name, event)
			}
		default:
			t.Fatalf("%s missed the broadcast", name)
		}
	}
}

func TestDeliveryStripsTargets(t *testing.T) {
	registry := NewConnectionRegistry()

	ch := make(chan domain.Event, 1)
	registry.Register(donor("alice"), ch)

	targets := []domain.Identity{donor("alice"), donor("bob")}
	registry.SendTo(targets, domain.Event{Type: domain.EventNewRequest, Targets: targets})

	event := <-ch
	if event.Targets != nil {
		t.Fatalf("routing metadata must not reach the client: %+v", event.Targets)
	}
}

func TestRegisterSupersedesOldChannel(t *testing.T) {
	registry := NewConnectionRegistry()

	chOld := make(chan domain.Event, 1)
	chNew := make(chan domain.Event, 1)
	registry.Register(donor("alice"), chOld)
	registry.Register(donor("alice"), chNew)

	registry.SendTo([]domain.Identity{donor("alice")}, domain.Event{Type: domain.EventNewRequest})

	select {
	case <-chNew:
	default:
		t.Fatalf("newest channel should receive")
	}
	select {
	case <-chOld:
		t.Fatalf("superseded channel must not receive")
	default:
	}
}

func TestUnregisterOfSupersededChannelKeepsNewMapping(t *testing.T) {
	registry := NewConnectionRegistry()

	chOld := make(chan domain.Event, 1)
	chNew := make(chan domain.Event, 1)
	registry.Register(donor("alice"), chOld)
	registry.Register(donor("alice"), chNew)

	// the old socket's handler tears down after being superseded
	registry.Unregister(chOld)

	if !registry.Connected(donor("alice")) {
		t.Fatalf("newer registration must survive the old handler's teardown")
	}

	registry.Unregister(chNew)
	if registry.Connected(donor("alice")) {
		t.Fatalf("identity should be disconnected after its live channel unregisters")
	}
}

func TestRejoinAsDifferentIdentityDropsOldMapping(t *testing.T) {
	registry := NewConnectionRegistry()

	ch := make(chan domain.Event, 1)
	registry.Register(donor("alice"), ch)
	registry.Register(donor("bob"), ch)

	if registry.Connected(donor("alice")) {
		t.Fatalf("previous identity must be disconnected after a re-join")
	}
	if !registry.Connected(donor("bob")) {
		t.Fatalf("new identity should be connected")
	}

	registry.Unregister(ch)
	close(ch)

	if registry.Connected(donor("alice")) || registry.Connected(donor("bob")) {
		t.Fatalf("no identity may survive the channel's teardown")
	}

	// must not reach the closed channel through a stale mapping
	registry.SendTo([]domain.Identity{donor("alice")}, domain.Event{Type: domain.EventNewRequest})
	registry.Broadcast(domain.Event{Type: domain.EventStatusChanged})
}

func TestFullChannelDropsInsteadOfBlocking(t *testing.T) {
	registry := NewConnectionRegistry()

	ch := make(chan domain.Event, 1)
	registry.Register(donor("alice"), ch)
	ch <- domain.Event{Type: domain.EventNewRequest, RequestID: "first"}

	done := make(chan struct{})
	go func() {
		registry.Broadcast(domain.Event{Type: domain.EventStatusChanged, RequestID: "second"})
		close(done)
	}()
	<-done

	event := <-ch
	if event.RequestID != "first" {
		t.Fatalf("stalled consumer's backlog must be untouched, got %+v", event)
	}
	select {
	case event := <-ch:
		t.Fatalf("overflow event should have been dropped, got %+v", event)
	default:
	}
}
