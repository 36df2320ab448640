// Package relay turns inbound chat events into outbound broadcasts.
//
// A Relay owns the in-memory state of one chat room: the connection registry
// and the reaction ledger. Every inbound event goes through Enqueue and is
// handled by the single goroutine running Run, so the state is only ever
// touched by one writer. Handlers are looked up in a dispatch table keyed by
// EventKind and return the outbounds to send; each Outbound carries an
// explicit Audience that the transport uses to pick recipients.
package relay
