// Package command parses the operator vocabulary (relay_on, relay_off,
// relay_auto, shabbat, week) at the boundary and dispatches it to the engine.
// Nothing past Dispatch sees free-form text.
package command
