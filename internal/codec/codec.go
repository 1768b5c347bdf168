// Package codec implements the wire encoder/decoder interface of spec
// §6.3: encode(packet) -> bytes|nil, decode(bytes) -> packet|nil, where
// nil means "drop". The wire format is a minimal length-prefixed binary
// encoding -- just enough structure to round-trip Interest, Content and
// Nack -- rather than a full TLV scheme, since the spec's packet model
// has exactly three fixed shapes instead of NDN's open-ended type space.
package codec

import (
	"encoding/binary"
	"io"

	"github.com/picn-go/picn/internal/defn"
	"github.com/picn-go/picn/internal/log"
)

// Kind tags which of the three packet shapes a wire frame holds.
type Kind byte

const (
	kindInterest Kind = 1
	kindContent  Kind = 2
	kindNack     Kind = 3
)

// MaxFrameSize bounds a single encoded packet, mirroring the forwarder's
// MaxNDNPacketSize guard against a corrupt or hostile length prefix.
const MaxFrameSize = 8800

// Encode serializes pkt to bytes, or returns nil if pkt is not one of the
// three known packet kinds.
func Encode(pkt defn.Packet) []byte {
	switch p := pkt.(type) {
	case *defn.Interest:
		return frame(kindInterest, p.NameV, nil)
	case *defn.Content:
		return frame(kindContent, p.NameV, p.PayloadV)
	case *defn.Nack:
		body := append([]byte{byte(p.Reason)}, encodeName(p.OriginatingInterest.NameV)...)
		return frame(kindNack, p.NameV, body)
	default:
		return nil
	}
}

func frame(kind Kind, name defn.Name, payload []byte) []byte {
	nameBytes := encodeName(name)
	out := make([]byte, 0, 1+len(nameBytes)+len(payload))
	out = append(out, byte(kind))
	out = append(out, nameBytes...)
	out = append(out, payload...)
	return out
}

// encodeName writes a name as a 2-byte component count followed by each
// component as a 2-byte length-prefixed byte string.
func encodeName(name defn.Name) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, uint16(len(name)))
	for _, c := range name {
		lenBuf := make([]byte, 2)
		binary.BigEndian.PutUint16(lenBuf, uint16(len(c)))
		out = append(out, lenBuf...)
		out = append(out, c...)
	}
	return out
}

func decodeName(b []byte) (defn.Name, []byte, bool) {
	if len(b) < 2 {
		return nil, nil, false
	}
	n := binary.BigEndian.Uint16(b)
	b = b[2:]
	name := make(defn.Name, 0, n)
	for i := 0; i < int(n); i++ {
		if len(b) < 2 {
			return nil, nil, false
		}
		l := binary.BigEndian.Uint16(b)
		b = b[2:]
		if len(b) < int(l) {
			return nil, nil, false
		}
		name = append(name, defn.Component(append([]byte(nil), b[:l]...)))
		b = b[l:]
	}
	return name, b, true
}

// Decode parses a wire frame, returning nil on any malformed input --
// callers must treat a nil return as "drop", never as an error to
// propagate (§6.3, §7 "malformed packet -> drop and log, never crash").
func Decode(raw []byte) defn.Packet {
	if len(raw) < 1 {
		return nil
	}
	kind := Kind(raw[0])
	name, rest, ok := decodeName(raw[1:])
	if !ok {
		return nil
	}

	switch kind {
	case kindInterest:
		return &defn.Interest{NameV: name, WireV: raw}
	case kindContent:
		return &defn.Content{NameV: name, PayloadV: append([]byte(nil), rest...)}
	case kindNack:
		if len(rest) < 1 {
			return nil
		}
		reason := defn.NackReason(rest[0])
		origName, _, ok := decodeName(rest[1:])
		if !ok {
			return nil
		}
		return &defn.Nack{NameV: name, Reason: reason, OriginatingInterest: &defn.Interest{NameV: origName}}
	default:
		return nil
	}
}

// WriteFrame writes raw to w prefixed with its 4-byte big-endian length,
// the stream-transport framing used by the TCP and Unix-stream faces.
func WriteFrame(w io.Writer, raw []byte) error {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(raw)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	_, err := w.Write(raw)
	return err
}

// ReadFrame reads one length-prefixed frame from r, the inverse of
// WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf)
	if n > MaxFrameSize {
		return nil, io.ErrShortBuffer
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

// LogDrop logs a decode failure the way the rest of the node logs any
// drop decision, keeping codec's own log identity distinct from its
// callers'.
func LogDrop(reason string, raw []byte) {
	log.Debug(stringer{"codec"}, "Dropping malformed frame", "reason", reason, "len", len(raw))
}
