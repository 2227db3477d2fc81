package server

import (
	"testing"
	"time"
)

func TestHostMigratesToEarliestJoined(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	joinTestPlayer(r, "host", "alice")
	second, _, _ := joinTestPlayer(r, "second", "bob")
	joinTestPlayer(r, "third", "carol")

	r.Leave("host")

	view := r.View()
	if view.HostID != second.PlayerID {
		t.Fatalf("host seat went to %s, want %s", view.HostID, second.PlayerID)
	}
}

func TestHostMigrationSkipsDisconnected(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	joinTestPlayer(r, "host", "alice")
	joinTestPlayer(r, "second", "bob")
	third, _, _ := joinTestPlayer(r, "third", "carol")

	r.HandleDisconnect("second")
	r.Leave("host")

	view := r.View()
	if view.HostID != third.PlayerID {
		t.Fatalf("host seat went to %s, want connected player %s", view.HostID, third.PlayerID)
	}
}

func TestHostStaysDuringGraceWindow(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	r := newTestRoom(clock)
	host, _, _ := joinTestPlayer(r, "host", "alice")
	joinTestPlayer(r, "guest", "bob")

	r.HandleDisconnect("host")
	clock.Advance(5 * time.Second)

	if view := r.View(); view.HostID != host.PlayerID {
		t.Fatalf("host seat migrated during grace window: %s", view.HostID)
	}
}

func TestHostExpiryTriggersMigration(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	r := newTestRoom(clock)
	joinTestPlayer(r, "host", "alice")
	guest, _, _ := joinTestPlayer(r, "guest", "bob")

	r.HandleDisconnect("host")
	clock.Advance(defaultGracePeriod + time.Second)
	r.step()

	if view := r.View(); view.HostID != guest.PlayerID {
		t.Fatalf("host seat = %s after expiry, want %s", view.HostID, guest.PlayerID)
	}
}

func TestReclaimHostWithToken(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	original, _, _ := joinTestPlayer(r, "host", "alice")
	joinTestPlayer(r, "guest", "bob")

	r.Leave("host")

	// Original host returns as a fresh player and presents the token.
	returned, err := r.AddPlayer("host2", &fakeConn{}, JSONCodec(), JoinOptions{Nickname: "alice", HostToken: "host-token"})
	if err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
	if returned.PlayerID == original.PlayerID {
		t.Fatalf("fresh join should mint a new player id")
	}
	if view := r.View(); view.HostID != returned.PlayerID {
		t.Fatalf("valid token should reclaim the host seat, seat = %s", view.HostID)
	}
}

func TestReclaimHostRejectsBadToken(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	joinTestPlayer(r, "host", "alice")
	joinTestPlayer(r, "guest", "bob")

	if err := r.ReclaimHost("guest", "wrong-token"); !IsCode(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestKickRequiresHost(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	host, _, _ := joinTestPlayer(r, "host", "alice")
	guest, _, _ := joinTestPlayer(r, "guest", "bob")

	if err := r.Kick("guest", host.PlayerID); !IsCode(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := r.Kick("host", host.PlayerID); !IsCode(err, ErrValidation) {
		t.Fatalf("expected self-kick rejection, got %v", err)
	}
	if err := r.Kick("host", guest.PlayerID); err != nil {
		t.Fatalf("host kick failed: %v", err)
	}
	if len(r.View().Players) != 1 {
		t.Fatalf("kicked player still in roster")
	}
}

func TestKickedConnectionReceivesNotice(t *testing.T) {
	t.Parallel()

	r := newTestRoom(newManualClock())
	joinTestPlayer(r, "host", "alice")
	guest, guestConn, _ := joinTestPlayer(r, "guest", "bob")

	if err := r.Kick("host", guest.PlayerID); err != nil {
		t.Fatalf("kick failed: %v", err)
	}

	guestConn.mu.Lock()
	var sawKicked bool
	for _, frame := range guestConn.sent {
		if containsType(frame, "kicked") {
			sawKicked = true
		}
	}
	guestConn.mu.Unlock()

	if !sawKicked {
		t.Fatalf("kicked player never received the notice")
	}
	if !guestConn.isClosed() {
		t.Fatalf("kicked connection should be closed")
	}
}
