package telemetry

import (
	"time"

	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/influxdb"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
)

// PointWriter is the subset of *influxdb.Client the recorder needs.
type PointWriter interface {
	WriteRelayTransition(t influxdb.RelayTransition)
	WriteLockExchange(x influxdb.LockExchange)
}

// History writes relay transitions and lock exchanges to InfluxDB.
type History struct {
	w        PointWriter
	deviceID string
	now      func() time.Time
}

// NewHistory returns an observer writing points through w.
func NewHistory(w PointWriter, deviceID string) *History {
	return &History{w: w, deviceID: deviceID, now: time.Now}
}

// RelayChanged implements engine.Observer. Only real flips are recorded.
func (h *History) RelayChanged(change relay.Change, _ engine.Status) {
	if !change.Flipped {
		return
	}
	h.w.WriteRelayTransition(influxdb.RelayTransition{
		DeviceID: h.deviceID,
		On:       change.On,
		Mode:     string(change.Mode),
		Cause:    string(change.Cause),
		At:       h.now(),
	})
}

// LockExchanged implements engine.Observer.
func (h *History) LockExchanged(result radio.AckResult, _ engine.Status) {
	h.w.WriteLockExchange(influxdb.LockExchange{
		Command:  string(result.Command),
		State:    result.State.String(),
		Acked:    result.Acked(),
		Elapsed:  result.Elapsed,
		Drained:  result.Drained,
		Response: result.Response,
		At:       h.now(),
	})
}

// StatusChanged implements engine.Observer.
func (h *History) StatusChanged(engine.Status) {}
