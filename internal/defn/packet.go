package defn

import "fmt"

// FaceID identifies a face as assigned by the link layer. It is an opaque
// integer to the ICN layer; only the link layer knows what it maps to.
type FaceID uint64

// LocalApp is the reserved face identifier naming the upward queue toward
// the repository/application layer, as opposed to a downstream network face.
const LocalApp FaceID = 0

// NackReason is a closed enumeration of reasons a Nack was generated.
type NackReason int

const (
	NackNone NackReason = iota
	NackNoRoute
	NackNoContent
	NackPitTimeout
	NackComputationError
)

func (r NackReason) String() string {
	switch r {
	case NackNoRoute:
		return "NoRoute"
	case NackNoContent:
		return "NoContent"
	case NackPitTimeout:
		return "PitTimeout"
	case NackComputationError:
		return "ComputationError"
	default:
		return "None"
	}
}

// Packet is the tagged variant carried on every inter-stage queue: its
// concrete type is exactly one of *Interest, *Content, or *Nack. Dispatch
// is by type switch on that concrete type, not by subtype polymorphism.
type Packet interface {
	PacketName() Name
	fmt.Stringer
	isPacket()
}

// Interest requests named content.
type Interest struct {
	NameV Name
	WireV []byte // optional: the undecoded wire form, kept for retransmission
}

func (i *Interest) PacketName() Name { return i.NameV }
func (i *Interest) isPacket()        {}
func (i *Interest) String() string   { return "Interest(" + i.NameV.String() + ")" }

// Clone returns a deep copy of the Interest.
func (i *Interest) Clone() *Interest {
	var wire []byte
	if i.WireV != nil {
		wire = make([]byte, len(i.WireV))
		copy(wire, i.WireV)
	}
	return &Interest{NameV: i.NameV.Clone(), WireV: wire}
}

// Content carries named data back along the path an Interest established.
type Content struct {
	NameV    Name
	PayloadV []byte
}

func (c *Content) PacketName() Name { return c.NameV }
func (c *Content) isPacket()        {}
func (c *Content) String() string   { return "Content(" + c.NameV.String() + ")" }

// Nack indicates that a request cannot be satisfied.
type Nack struct {
	NameV               Name
	Reason              NackReason
	OriginatingInterest *Interest
}

func (n *Nack) PacketName() Name { return n.NameV }
func (n *Nack) isPacket()        {}
func (n *Nack) String() string {
	return fmt.Sprintf("Nack(%s, %s)", n.NameV.String(), n.Reason)
}

// Direction distinguishes which side of the ICN layer a packet arrived from
// or is being emitted toward: Lower faces the network (through faces),
// Higher faces the local application/repository (through LocalApp).
type Direction int

const (
	Lower Direction = iota
	Higher
)

func (d Direction) String() string {
	if d == Higher {
		return "higher"
	}
	return "lower"
}

// FromLocal reports whether a face id names the local application queue.
func FromLocal(face FaceID) bool {
	return face == LocalApp
}

// Envelope is the 2-tuple carried on every inter-stage queue: a face
// identifier and the packet that arrived on, or is destined for, it.
type Envelope struct {
	Face   FaceID
	Packet Packet
}
