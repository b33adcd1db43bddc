package wlclient

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const headerSize = 8

// maxMessageSize is the largest message the 16-bit size field can describe.
const maxMessageSize = 0xffff

var errShortEvent = errors.New("event body too short")

// Event is one decoded message from the compositor. Arguments are read in
// order with the typed accessors; the first decoding failure sticks and is
// reported by Err.
type Event struct {
	Sender uint32
	Opcode uint16

	data []byte
	off  int
	err  error
}

// NewEvent builds an event from a raw body, mostly for tests.
func NewEvent(sender uint32, opcode uint16, body []byte) *Event {
	return &Event{Sender: sender, Opcode: opcode, data: body}
}

// Err returns the first decoding error, if any.
func (e *Event) Err() error {
	if e.err != nil {
		return fmt.Errorf("object %d opcode %d: %w", e.Sender, e.Opcode, e.err)
	}
	return nil
}

func (e *Event) next(n int) []byte {
	if e.err != nil {
		return nil
	}
	if n < 0 || len(e.data)-e.off < n {
		e.err = errShortEvent
		return nil
	}
	b := e.data[e.off : e.off+n]
	e.off += n
	return b
}

// Uint32 reads a uint, object or new_id argument.
func (e *Event) Uint32() uint32 {
	b := e.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Int32 reads an int argument.
func (e *Event) Int32() int32 {
	return int32(e.Uint32())
}

// String reads a string argument. A null string decodes as "".
func (e *Event) String() string {
	n := int(e.Uint32())
	if n == 0 {
		return ""
	}
	b := e.next(padded(n))
	if b == nil {
		return ""
	}
	return string(bytes.TrimRight(b[:n], "\x00"))
}

// Array reads an array argument. The returned slice is a copy.
func (e *Event) Array() []byte {
	n := int(e.Uint32())
	b := e.next(padded(n))
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b[:n])
	return out
}

// Uint32Array reads an array argument made of uint32 values.
func (e *Event) Uint32Array() []uint32 {
	raw := e.Array()
	if e.err != nil {
		return nil
	}
	if len(raw)%4 != 0 {
		e.err = fmt.Errorf("array of %d bytes is not a uint32 array", len(raw))
		return nil
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out
}

func padded(n int) int {
	return (n + 3) &^ 3
}

// readEvent reads one complete message from r.
func readEvent(r io.Reader) (*Event, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	sender := binary.LittleEndian.Uint32(header[0:4])
	sizeOpcode := binary.LittleEndian.Uint32(header[4:8])
	// Upper 16 bits = size including header, lower 16 bits = opcode
	size := int(sizeOpcode >> 16)
	opcode := uint16(sizeOpcode & 0xffff)

	if size < headerSize || size%4 != 0 {
		return nil, fmt.Errorf("invalid message size %d from object %d", size, sender)
	}

	body := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body of object %d opcode %d: %w", sender, opcode, err)
	}
	return NewEvent(sender, opcode, body), nil
}

// marshalRequest encodes a request. Supported argument types are uint32,
// int32, string, []byte, []uint32, Proxy (object or new_id) and nil (null
// object).
func marshalRequest(sender uint32, opcode uint16, args ...any) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, headerSize, 64))

	for _, arg := range args {
		if err := marshalArg(buf, arg); err != nil {
			return nil, fmt.Errorf("marshal argument: %w", err)
		}
	}

	data := buf.Bytes()
	if len(data) > maxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", len(data))
	}
	binary.LittleEndian.PutUint32(data[0:4], sender)
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(data))<<16|uint32(opcode))
	return data, nil
}

func marshalArg(buf *bytes.Buffer, arg any) error {
	switch v := arg.(type) {
	case uint32:
		return binary.Write(buf, binary.LittleEndian, v)
	case int32:
		return binary.Write(buf, binary.LittleEndian, v)
	case string:
		// length counts the terminating NUL
		n := len(v) + 1
		if err := binary.Write(buf, binary.LittleEndian, uint32(n)); err != nil {
			return err
		}
		buf.WriteString(v)
		buf.Write(make([]byte, padded(n)-len(v)))
	case []byte:
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(v))); err != nil {
			return err
		}
		buf.Write(v)
		buf.Write(make([]byte, padded(len(v))-len(v)))
	case []uint32:
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(v)*4)); err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, v)
	case Proxy:
		return binary.Write(buf, binary.LittleEndian, v.ID())
	case nil:
		return binary.Write(buf, binary.LittleEndian, uint32(0))
	default:
		return fmt.Errorf("unsupported argument type %T", arg)
	}
	return nil
}
