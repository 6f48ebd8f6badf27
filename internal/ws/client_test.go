package ws

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func drain(c *Client) []OutboundMessage {
	var out []OutboundMessage
	for {
		select {
		case b := <-c.Send:
			var m OutboundMessage
			if err := json.Unmarshal(b, &m); err != nil {
				panic(err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestClient_NextOffset(t *testing.T) {
	c := NewClient("sess", "user", NewHub(), nil)

	first := c.NextOffset()
	second := c.NextOffset()

	if first == second {
		t.Errorf("NextOffset() repeated value %q", first)
	}
	if !strings.HasPrefix(first, "sess-") || !strings.HasPrefix(second, "sess-") {
		t.Errorf("NextOffset() = %q, %q, want sess- prefix", first, second)
	}
}

func TestClient_DeliverDropsDuplicates(t *testing.T) {
	c := NewClient("s1", "u", NewHub(), nil)

	c.Deliver(1, EncodeChat("u: one", 1))
	c.Deliver(2, EncodeChat("u: two", 2))
	c.Deliver(2, EncodeChat("u: two", 2))
	c.Deliver(1, EncodeChat("u: one", 1))

	got := drain(c)
	if len(got) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("delivered ids = %d, %d, want 1, 2", got[0].ID, got[1].ID)
	}
}

func TestClient_RecoveryBuffersLiveBroadcasts(t *testing.T) {
	c := NewClient("s1", "u", NewHub(), nil)

	c.BeginRecovery()
	// A live broadcast lands while replay is still running.
	c.Deliver(5, EncodeChat("u: live", 5))
	c.DeliverReplay(1, EncodeChat("u: one", 1))
	c.DeliverReplay(2, EncodeChat("u: two", 2))
	c.DeliverReplay(3, EncodeChat("u: three", 3))
	c.FinishRecovery()

	got := drain(c)
	want := []uint{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("delivered %d messages, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("delivery[%d] id = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestClient_RecoveryFlushDropsReplayedIDs(t *testing.T) {
	c := NewClient("s1", "u", NewHub(), nil)

	c.BeginRecovery()
	// The live copy of id 2 arrives mid-replay and is also part of the replay.
	c.Deliver(2, EncodeChat("u: two", 2))
	c.DeliverReplay(1, EncodeChat("u: one", 1))
	c.DeliverReplay(2, EncodeChat("u: two", 2))
	c.DeliverReplay(3, EncodeChat("u: three", 3))
	c.FinishRecovery()

	got := drain(c)
	if len(got) != 3 {
		t.Fatalf("delivered %d messages, want 3", len(got))
	}
	seen := make(map[uint]int)
	for _, m := range got {
		seen[m.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("id %d delivered %d times", id, n)
		}
	}
}

func TestClient_RecoveryFlushSortsPending(t *testing.T) {
	c := NewClient("s1", "u", NewHub(), nil)

	c.BeginRecovery()
	c.Deliver(9, EncodeChat("u: nine", 9))
	c.Deliver(7, EncodeChat("u: seven", 7))
	c.Deliver(8, EncodeChat("u: eight", 8))
	c.FinishRecovery()

	got := drain(c)
	if len(got) != 3 {
		t.Fatalf("delivered %d messages, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Errorf("flush out of order: %d then %d", got[i-1].ID, got[i].ID)
		}
	}
}

func TestClient_GateResetsOnRoomSwitch(t *testing.T) {
	hub := NewHub()
	c := NewClient("s1", "u", hub, nil)

	hub.Join(c, "roomA")
	c.Deliver(7, EncodeChat("a: seven", 7))
	c.Deliver(8, EncodeChat("a: eight", 8))
	drain(c)

	hub.Leave(c, "roomA")
	hub.Join(c, "roomB")

	// roomB's history carries lower store-wide ids than what roomA delivered.
	c.DeliverReplay(1, EncodeChat("b: one", 1))
	c.DeliverReplay(2, EncodeChat("b: two", 2))

	got := drain(c)
	if len(got) != 2 {
		t.Fatalf("delivered %d roomB messages after switch, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("delivered ids = %d, %d, want 1, 2", got[0].ID, got[1].ID)
	}
}

func TestClient_GateKeptOnRejoinSameRoom(t *testing.T) {
	hub := NewHub()
	c := NewClient("s1", "u", hub, nil)

	hub.Join(c, "lobby")
	c.Deliver(3, EncodeChat("u: three", 3))
	drain(c)

	hub.Leave(c, "lobby")
	hub.Join(c, "lobby")

	// Re-joining the same room keeps the watermark: id 3 was already seen.
	c.DeliverReplay(3, EncodeChat("u: three", 3))
	c.DeliverReplay(4, EncodeChat("u: four", 4))

	got := drain(c)
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("delivered %v, want only id 4", got)
	}
}

func TestClient_ConnectionGauge(t *testing.T) {
	base := testutil.ToFloat64(metrics.WsConnections)
	hub := NewHub()

	c := NewClient("s1", "u", hub, nil)
	if got := testutil.ToFloat64(metrics.WsConnections); got != base+1 {
		t.Errorf("gauge = %v after connect, want %v", got, base+1)
	}

	hub.Disconnect(c)
	if got := testutil.ToFloat64(metrics.WsConnections); got != base {
		t.Errorf("gauge = %v after disconnect, want %v", got, base)
	}

	// Repeated disconnect must not decrement twice.
	hub.Disconnect(c)
	if got := testutil.ToFloat64(metrics.WsConnections); got != base {
		t.Errorf("gauge = %v after repeated disconnect, want %v", got, base)
	}
}

func TestClient_DeliverEventBypassesGate(t *testing.T) {
	c := NewClient("s1", "u", NewHub(), nil)

	c.BeginRecovery()
	c.DeliverEvent(EncodeUsername("Cool Tiger", "tk"))

	// Username event must arrive immediately, even mid-recovery.
	got := drain(c)
	if len(got) != 1 || got[0].Type != EventUsername {
		t.Fatalf("got %v, want one username event", got)
	}
	c.FinishRecovery()
}

func TestClient_DeliverAfterDisconnect(t *testing.T) {
	hub := NewHub()
	c := NewClient("s1", "u", hub, nil)
	hub.Join(c, "lobby")
	hub.Disconnect(c)

	// Must not panic on the closed channel.
	c.Deliver(1, EncodeChat("u: late", 1))
	c.DeliverReplay(2, EncodeChat("u: later", 2))
	c.DeliverEvent(EncodeUsername("u", "tk"))
}
