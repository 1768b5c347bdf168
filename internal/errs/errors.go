// Package errs collects the sentinel and typed errors shared across picn,
// in the style of the forwarder's std/ndn/errors.go: a handful of plain
// sentinels naming conditions of the forwarding plane, plus a couple of
// typed errors that carry the offending value for logging. The packet
// handlers, codec and faces act on these conditions by sending a Nack,
// returning nil, or dropping the packet; none of them returns the
// sentinels below.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRoute names a FIB lookup for an Interest that finds no entry.
	ErrNoRoute = errors.New("no route to name")
	// ErrNoContent names a repository that cannot answer an Interest from
	// local storage.
	ErrNoContent = errors.New("no content for name")
	// ErrFaceDown names a send attempted on a closed face.
	ErrFaceDown = errors.New("face is down")
	// ErrMalformedMessage names an inter-stage tuple that is not a
	// well-formed (face, packet) pair.
	ErrMalformedMessage = errors.New("malformed inter-stage message")
	// ErrDecodeFailed names bytes that cannot be parsed into a packet.
	ErrDecodeFailed = errors.New("failed to decode packet")
	// ErrUnknownSession names a session-control packet that does not match
	// any known handshake or session state.
	ErrUnknownSession = errors.New("unknown session packet")
	// ErrPitEntryMissing names a Content or Nack whose name has no pending
	// Interest.
	ErrPitEntryMissing = errors.New("no PIT entry for name")
	// ErrShuttingDown names work arriving once node shutdown has begun.
	ErrShuttingDown = errors.New("node is shutting down")
)

// ErrInvalidValue reports a field that failed validation, naming both the
// field and the rejected value.
type ErrInvalidValue struct {
	Item  string
	Value any
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Item, e.Value)
}

// ErrNotSupported reports a configured feature the running build has no
// implementation for (e.g. a face transport scheme that isn't compiled in).
type ErrNotSupported struct {
	Item string
}

func (e ErrNotSupported) Error() string {
	return fmt.Sprintf("not supported: %s", e.Item)
}
