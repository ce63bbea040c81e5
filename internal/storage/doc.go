// Package storage persists opaque byte blobs for the schedule.
//
// Both backends implement the same three-call contract (Save, Load, Wipe)
// and never interpret the payload:
//
//   - SQLiteStore keeps one row per namespace in the blobs table.
//   - FileStore keeps one file, replaced atomically through a temp file and rename.
//
// Load returns ErrNotFound when nothing has been saved (or the blob was wiped).
package storage
