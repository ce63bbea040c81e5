// Package api implements the HTTP REST API of the Shabbat clock.
//
// It is a thin collaborator over the engine: every handler decodes a request,
// calls one engine operation and maps the result to a status code.
//
//	GET    /api/v1/health                          liveness and dependency checks
//	GET    /api/v1/status                          status snapshot
//	POST   /api/v1/command                         {"command": "relay_on" | ... | "week"}
//	GET    /api/v1/schedule                        ordered entries
//	PUT    /api/v1/schedule                        {"day":5,"hour":18,"minute":0,"state":"on"}
//	DELETE /api/v1/schedule                        clear
//	DELETE /api/v1/schedule/{day}/{hour}/{minute}  delete one entry
//	PUT    /api/v1/time                            set the wall clock
//	GET    /metrics                                Prometheus exposition
//
// # Status codes
//
// Unchanged, full and time-invalid rejections answer 409, unknown entries
// 404, malformed input 400 and an unacknowledged lock request 504. A schedule
// change that could not be persisted still answers 200 with "persisted":
// false, since the running schedule already changed.
package api
