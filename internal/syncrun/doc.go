// Package syncrun sequences one sync pass: lock, connect, download, upload,
// quarantine check, disconnect, record.
//
// Only failing to take the run lock or to establish the session is returned
// as an error. Every later phase is best-effort: its failures are logged and
// reported in the Summary, and the next phase still runs. The session is
// closed on every path once it is open.
package syncrun
