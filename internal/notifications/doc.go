// Package notifications tells an operator that files have aged out of the
// export folder.
//
// Mail is the primary transport: one plain-text message submitted over
// STARTTLS to the configured provider, subject "File Alert: <name>". An ntfy
// topic can be configured alongside it; when both are set every alert goes to
// both. With neither configured the service is a no-op.
//
// Delivery is best-effort from the caller's point of view. Errors are tagged
// services.ErrDelivery so the quarantine monitor can log and move on.
package notifications
