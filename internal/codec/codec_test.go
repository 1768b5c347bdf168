package codec

import (
	"bytes"
	"testing"

	"github.com/picn-go/picn/internal/defn"
	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeInterestRoundTrip(t *testing.T) {
	in := &defn.Interest{NameV: defn.NameFromStr("/a/b/c")}
	raw := Encode(in)
	assert.NotNil(t, raw)

	out := Decode(raw)
	got, ok := out.(*defn.Interest)
	assert.True(t, ok)
	assert.True(t, got.NameV.Equal(in.NameV))
}

func TestEncodeDecodeContentRoundTrip(t *testing.T) {
	in := &defn.Content{NameV: defn.NameFromStr("/a/b"), PayloadV: []byte("payload bytes")}
	raw := Encode(in)

	out := Decode(raw)
	got, ok := out.(*defn.Content)
	assert.True(t, ok)
	assert.True(t, got.NameV.Equal(in.NameV))
	assert.Equal(t, in.PayloadV, got.PayloadV)
}

func TestEncodeDecodeNackRoundTrip(t *testing.T) {
	in := &defn.Nack{
		NameV:               defn.NameFromStr("/a/b"),
		Reason:              defn.NackNoRoute,
		OriginatingInterest: &defn.Interest{NameV: defn.NameFromStr("/a/b")},
	}
	raw := Encode(in)

	out := Decode(raw)
	got, ok := out.(*defn.Nack)
	assert.True(t, ok)
	assert.True(t, got.NameV.Equal(in.NameV))
	assert.Equal(t, defn.NackNoRoute, got.Reason)
	assert.True(t, got.OriginatingInterest.NameV.Equal(in.NameV))
}

func TestDecodeEmptyInputReturnsNil(t *testing.T) {
	assert.Nil(t, Decode(nil))
	assert.Nil(t, Decode([]byte{}))
}

func TestDecodeUnknownKindReturnsNil(t *testing.T) {
	raw := frame(Kind(99), defn.NameFromStr("/a"), nil)
	assert.Nil(t, Decode(raw))
}

func TestDecodeTruncatedNameReturnsNil(t *testing.T) {
	raw := Encode(&defn.Interest{NameV: defn.NameFromStr("/a/b/c")})
	truncated := raw[:len(raw)-1]
	assert.Nil(t, Decode(truncated))
}

func TestDecodeTruncatedNackBodyReturnsNil(t *testing.T) {
	// A Nack frame with a name but no reason byte following it.
	raw := frame(kindNack, defn.NameFromStr("/a"), nil)
	assert.Nil(t, Decode(raw))
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello frame")

	assert.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	assert.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameRejectsOversizedLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	buf.Write(lenBuf)

	_, err := ReadFrame(&buf)
	assert.Error(t, err)
}
