// Package observer streams per-tick summaries to websocket clients.
// Observers are read-only: they never influence the simulation.
package observer

import (
	"strconv"

	"github.com/vovakirdan/worldsim/internal/storage"
)

// Version is the observer protocol version.
const Version = 1

// Frame is one tick summary as sent on the wire.
type Frame struct {
	Type            string   `json:"type"` // always "TICK"
	ProtocolVersion int      `json:"protocol_version"`
	Timeline        uint32   `json:"timeline"`
	Tick            uint64   `json:"tick"`
	Populations     int      `json:"populations"`
	Biomass         uint64   `json:"biomass"`
	Civilizations   int      `json:"civilizations"`
	CivPopulation   uint64   `json:"civ_population"`
	AvgTech         float64  `json:"avg_tech"`
	Wars            int      `json:"wars"`
	Action          string   `json:"action"`
	Digest          string   `json:"digest"` // hex; JSON numbers lose uint64 precision
	Events          []string `json:"events,omitempty"`
}

// NewFrame builds a frame from a chronicle record and its events.
func NewFrame(rec storage.TickRecord, events []storage.Event) Frame {
	f := Frame{
		Type:            "TICK",
		ProtocolVersion: Version,
		Timeline:        rec.Timeline,
		Tick:            rec.Tick,
		Populations:     rec.Populations,
		Biomass:         rec.Biomass,
		Civilizations:   rec.Civilizations,
		CivPopulation:   rec.CivPopulation,
		AvgTech:         rec.AvgTech,
		Wars:            rec.Wars,
		Action:          rec.Action,
		Digest:          strconv.FormatUint(rec.Digest, 16),
	}
	for _, e := range events {
		f.Events = append(f.Events, e.Kind+": "+e.Detail)
	}
	return f
}

// SubscribeMsg lets a client thin the stream to every Nth tick.
type SubscribeMsg struct {
	Type            string `json:"type"` // "SUBSCRIBE"
	ProtocolVersion int    `json:"protocol_version"`
	Every           int    `json:"every"`
}

func normalizeEvery(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 10000 {
		return 10000
	}
	return n
}
