// Package engine is the clock's core context: one owned aggregate holding the
// weekly schedule, the relay mode controller, the mirrored lock flag of the
// paired unit and the radio health flag.
//
// Callers use typed operations (ScheduleUpsert, SetManual, SetAuto,
// RequestLock, Status, ...) and never touch the parts directly. Run drives
// the periodic scheduling pass. Observers receive every relay commit, lock
// exchange and status change for telemetry.
package engine
