package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementRelay    = "relay"
	MeasurementLockSync = "lock_sync"
)

// RelayTransition is one committed relay change.
type RelayTransition struct {
	DeviceID string
	On       bool
	Mode     string
	Cause    string
	At       time.Time
}

// LockExchange is one completed lock-sync radio exchange.
type LockExchange struct {
	Command  string
	State    string
	Acked    bool
	Elapsed  time.Duration
	Drained  int
	Response string
	At       time.Time
}

// WriteRelayTransition records a relay change.
//
// Tags: device_id, mode, cause. Fields: on (bool), state (0/1 for graphing).
//
// Example:
//
//	client.WriteRelayTransition(influxdb.RelayTransition{
//	    DeviceID: "relay-1", On: true, Mode: "auto", Cause: "schedule", At: time.Now(),
//	})
func (c *Client) WriteRelayTransition(t RelayTransition) {
	state := 0
	if t.On {
		state = 1
	}
	c.WritePointWithTime(MeasurementRelay,
		map[string]string{
			"device_id": t.DeviceID,
			"mode":      t.Mode,
			"cause":     t.Cause,
		},
		map[string]interface{}{
			"on":    t.On,
			"state": state,
		},
		t.At,
	)
}

// WriteLockExchange records a lock-sync exchange, acknowledged or not.
func (c *Client) WriteLockExchange(x LockExchange) {
	c.WritePointWithTime(MeasurementLockSync,
		map[string]string{
			"command": x.Command,
			"state":   x.State,
		},
		map[string]interface{}{
			"acked":        x.Acked,
			"elapsed_ms":   x.Elapsed.Milliseconds(),
			"drained":      x.Drained,
			"response_len": len(x.Response),
		},
		x.At,
	)
}

// WritePointWithTime writes a point with an explicit timestamp. A zero
// timestamp means now. Dropped silently when not connected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
