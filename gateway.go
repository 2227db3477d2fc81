package server

import (
	"context"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"goal-rush/server/internal/sim"
	"goal-rush/server/logging"
)

// InputGateway sits between the socket read loop and the rooms: it
// rate-limits, sanitizes, and sequences player-input messages so the
// simulation only ever sees well-formed intents.
type InputGateway struct {
	mu      sync.Mutex
	clients map[string]*inputClient

	publisher logging.Publisher
	telemetry *TelemetryCounters
}

type inputClient struct {
	limiter   *rate.Limiter
	lastSeq   uint64
	throttled bool
}

// NewInputGateway builds a gateway with the standard per-connection budget.
func NewInputGateway(publisher logging.Publisher, telemetry *TelemetryCounters) *InputGateway {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &InputGateway{
		clients:   make(map[string]*inputClient),
		publisher: publisher,
		telemetry: telemetry,
	}
}

// Admit validates one player-input message. It reports the cleaned intent
// and whether it should reach the room; rejected inputs are counted and
// dropped without an error reply.
func (g *InputGateway) Admit(connID string, msg ClientMessage) (sim.Input, bool) {
	g.mu.Lock()
	client, ok := g.clients[connID]
	if !ok {
		client = &inputClient{limiter: rate.NewLimiter(rate.Limit(inputRatePerSecond), inputRateBurst)}
		g.clients[connID] = client
	}

	if !client.limiter.Allow() {
		if !client.throttled {
			client.throttled = true
			g.publisher.Publish(context.Background(), logging.Event{
				Type:     "input_throttled",
				Severity: logging.SeverityWarn,
				Category: logging.CategoryNetwork,
				Actor:    logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
			})
		}
		g.mu.Unlock()
		g.telemetry.IncrementDroppedInputs()
		return sim.Input{}, false
	}
	if client.throttled {
		client.throttled = false
		g.publisher.Publish(context.Background(), logging.Event{
			Type:     "input_resumed",
			Severity: logging.SeverityInfo,
			Category: logging.CategoryNetwork,
			Actor:    logging.EntityRef{ID: connID, Kind: logging.EntityKindPlayer},
		})
	}

	// Stale packets arrive out of order on congested links; only the
	// newest sequence wins.
	if msg.Seq != 0 && msg.Seq <= client.lastSeq {
		g.mu.Unlock()
		g.telemetry.IncrementDroppedInputs()
		return sim.Input{}, false
	}
	if msg.Seq != 0 {
		client.lastSeq = msg.Seq
	}
	g.mu.Unlock()

	if !isFiniteInput(msg.DX) || !isFiniteInput(msg.DZ) {
		g.telemetry.IncrementDroppedInputs()
		return sim.Input{}, false
	}

	return sim.Input{
		DX:    clampAxis(msg.DX),
		DZ:    clampAxis(msg.DZ),
		Boost: msg.Boost,
		Jump:  msg.Jump,
		Seq:   msg.Seq,
	}, true
}

// Forget releases the per-connection limiter state.
func (g *InputGateway) Forget(connID string) {
	g.mu.Lock()
	delete(g.clients, connID)
	g.mu.Unlock()
}

func clampAxis(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func isFiniteInput(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
