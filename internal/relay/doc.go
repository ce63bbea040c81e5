// Package relay derives the relay state from the weekly schedule and owns the
// mode state machine that commits it.
//
// The three resolvers are pure functions over (entries, reading):
//
//   - ApplyDue: latest entry today at or before now (the per-minute tick)
//   - AnticipateNext: opposite of the next entry (entering AUTO)
//   - ResumeLast: most recent past entry up to six days back (power recovery)
//
// All three return ok=false for an invalid reading or an empty schedule, so a
// stale clock never drives the output.
//
// The Controller is the single writer of the relay output. It holds one of
// three modes (manual_on, manual_off, auto) and commits through an Actuator:
// LogActuator for dry runs, MQTTActuator for a relay behind an MQTT bridge.
package relay
