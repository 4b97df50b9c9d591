package events_test

import (
	"testing"

	"github.com/velcoin/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out events to subscribers.")
	{
		evts := events.New()

		id1, ch1 := evts.Acquire()
		id2, ch2 := evts.Acquire()
		if id1 == id2 || evts.Subscribers() != 2 {
			t.Fatalf("\t%s\tShould register two subscribers with their own ids.", failed)
		}
		t.Logf("\t%s\tShould register two subscribers with their own ids.", success)

		evts.Send("state: MineNewBlock: MINING: commit block")
		for _, ch := range []<-chan string{ch1, ch2} {
			if msg := <-ch; msg != "state: MineNewBlock: MINING: commit block" {
				t.Fatalf("\t%s\tShould receive the event, got %q.", failed, msg)
			}
		}
		t.Logf("\t%s\tShould receive the event on every subscriber.", success)

		if err := evts.Release(id1); err != nil {
			t.Fatalf("\t%s\tShould release the subscriber: %s", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close the released channel.", failed)
		}
		if err := evts.Release(id1); err == nil {
			t.Fatalf("\t%s\tShould not release a subscriber twice.", failed)
		}
		t.Logf("\t%s\tShould release a subscriber once.", success)

		for i := 0; i < 500; i++ {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a slow subscriber.", success)

		evts.Shutdown()
		if evts.Subscribers() != 0 {
			t.Fatalf("\t%s\tShould remove every subscriber on shutdown.", failed)
		}
		for range ch2 {
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
