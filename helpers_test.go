package server

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"goal-rush/server/internal/sim"
)

func containsType(frame []byte, msgType string) bool {
	return bytes.Contains(frame, []byte(`"type":"`+msgType+`"`))
}

// fakeConn records outbound frames so tests can assert on broadcasts.
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) Send(data []byte, binary bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("use of closed connection")
	}
	if c.fail {
		return errors.New("connection gone")
	}
	buf := append([]byte(nil), data...)
	c.sent = append(c.sent, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) failSends() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

// manualClock lets tests control grace periods and sweep timing.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testRoomConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Obstacles = false
	cfg.BoostPads = false
	cfg.Seed = 1
	return cfg
}

// newTestRoom returns a room with an injected clock and the internal ticker
// disabled so tests drive step deterministically.
func newTestRoom(clock *manualClock) *Room {
	r := NewRoom("ROOM01", "host-token", testRoomConfig(), nil, nil)
	r.clock = clock.Now
	r.tickInterval = 0
	return r
}

func joinTestPlayer(r *Room, connID, nickname string) (JoinResult, *fakeConn, error) {
	conn := &fakeConn{}
	result, err := r.AddPlayer(connID, conn, JSONCodec(), JoinOptions{Nickname: nickname})
	return result, conn, err
}

// stepUntil drives the room tick loop until the predicate holds or the
// budget runs out.
func stepUntil(r *Room, maxTicks int, done func() bool) bool {
	for i := 0; i < maxTicks; i++ {
		if done() {
			return true
		}
		r.step()
	}
	return done()
}
