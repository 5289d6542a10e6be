package packet

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrEmpty is returned for a packet without an opcode byte.
var ErrEmpty = errors.New("empty packet")

// Reader gives handlers access to one inbound packet.
// Byte 0 is the opcode, the rest is a msgpack body (possibly empty).
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// Body returns the undecoded payload after the opcode.
func (r *Reader) Body() []byte {
	if len(r.data) <= 1 {
		return nil
	}
	return r.data[1:]
}

// Decode unmarshals the body into v.
func (r *Reader) Decode(v any) error {
	body := r.Body()
	if len(body) == 0 {
		return fmt.Errorf("opcode %d: missing body", r.Opcode())
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("opcode %d: decode: %w", r.Opcode(), err)
	}
	return nil
}

// Encode builds [opcode][msgpack(v)]. A nil v yields a bare opcode.
func Encode(opcode byte, v any) ([]byte, error) {
	if v == nil {
		return []byte{opcode}, nil
	}
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", OpcodeName(opcode), err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, opcode)
	return append(out, body...), nil
}

// MustEncode is Encode for payload types that always marshal.
func MustEncode(opcode byte, v any) []byte {
	b, err := Encode(opcode, v)
	if err != nil {
		panic(err)
	}
	return b
}
