// Package influxdb keeps a history of relay transitions and lock-sync
// exchanges in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 client. Writes are batched and
// non-blocking; WriteRelayTransition and WriteLockExchange are no-ops once
// the client is closed.
//
// Measurements:
//
//	relay      tags device_id, mode, cause   fields on, state
//	lock_sync  tags command, state           fields acked, elapsed_ms, drained, response_len
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history is optional
//	}
//	defer client.Close()
package influxdb
