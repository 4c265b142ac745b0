// Package rpc implements the wire protocol between the daemon and its
// command-line front-end. Every message is a 4-byte big-endian length
// prefix followed by a tagged binary payload; the payload encoding is
// fixed and self-describing, so both sides can be upgraded independently
// of any external schema.
package rpc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// maxFrameSize bounds an inbound frame so a corrupt length prefix cannot
// ask for gigabytes.
const maxFrameSize = 64 << 20

// writeFrame writes one length-prefixed payload.
func writeFrame(w io.Writer, payload []byte) error {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))

	if _, err := w.Write(length[:]); err != nil {
		return fmt.Errorf("could not write frame length: [%v]", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("could not write frame payload: [%v]", err)
	}

	return nil
}

// readFrame reads one length-prefixed payload.
func readFrame(r io.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(length[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of [%v] bytes exceeds the limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("could not read frame payload: [%v]", err)
	}

	return payload, nil
}

// encoder appends primitive values to a payload buffer.
type encoder struct {
	buffer []byte
}

func (e *encoder) writeByte(value byte) {
	e.buffer = append(e.buffer, value)
}

func (e *encoder) writeBool(value bool) {
	if value {
		e.writeByte(1)
	} else {
		e.writeByte(0)
	}
}

func (e *encoder) writeUint32(value uint32) {
	var scratch [4]byte
	binary.BigEndian.PutUint32(scratch[:], value)
	e.buffer = append(e.buffer, scratch[:]...)
}

func (e *encoder) writeUint64(value uint64) {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], value)
	e.buffer = append(e.buffer, scratch[:]...)
}

func (e *encoder) writeFloat(value float64) {
	e.writeUint64(math.Float64bits(value))
}

func (e *encoder) writeString(value string) {
	e.writeUint32(uint32(len(value)))
	e.buffer = append(e.buffer, value...)
}

// writeTime encodes an instant as Unix milliseconds.
func (e *encoder) writeTime(value time.Time) {
	e.writeUint64(uint64(value.UnixMilli()))
}

// writeFloatOption encodes an optional float as a presence byte followed,
// when present, by the value.
func (e *encoder) writeFloatOption(value *float64) {
	if value == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)
	e.writeFloat(*value)
}

func (e *encoder) writeStringOption(value *string) {
	if value == nil {
		e.writeByte(0)
		return
	}
	e.writeByte(1)
	e.writeString(*value)
}

// decoder consumes primitive values from a payload buffer. The first
// malformed read poisons the decoder; callers check err once at the end.
type decoder struct {
	buffer []byte
	offset int
	err    error
}

func (d *decoder) fail(what string) {
	if d.err == nil {
		d.err = fmt.Errorf("payload truncated at %v", what)
	}
}

func (d *decoder) readByte(what string) byte {
	if d.err != nil {
		return 0
	}
	if d.offset+1 > len(d.buffer) {
		d.fail(what)
		return 0
	}
	value := d.buffer[d.offset]
	d.offset++
	return value
}

func (d *decoder) readBool(what string) bool {
	return d.readByte(what) != 0
}

func (d *decoder) readUint32(what string) uint32 {
	if d.err != nil {
		return 0
	}
	if d.offset+4 > len(d.buffer) {
		d.fail(what)
		return 0
	}
	value := binary.BigEndian.Uint32(d.buffer[d.offset:])
	d.offset += 4
	return value
}

func (d *decoder) readUint64(what string) uint64 {
	if d.err != nil {
		return 0
	}
	if d.offset+8 > len(d.buffer) {
		d.fail(what)
		return 0
	}
	value := binary.BigEndian.Uint64(d.buffer[d.offset:])
	d.offset += 8
	return value
}

func (d *decoder) readFloat(what string) float64 {
	return math.Float64frombits(d.readUint64(what))
}

func (d *decoder) readString(what string) string {
	length := int(d.readUint32(what))
	if d.err != nil {
		return ""
	}
	if d.offset+length > len(d.buffer) {
		d.fail(what)
		return ""
	}
	value := string(d.buffer[d.offset : d.offset+length])
	d.offset += length
	return value
}

func (d *decoder) readTime(what string) time.Time {
	return time.UnixMilli(int64(d.readUint64(what))).UTC()
}

func (d *decoder) readFloatOption(what string) *float64 {
	if d.readByte(what) == 0 {
		return nil
	}
	value := d.readFloat(what)
	return &value
}

func (d *decoder) readStringOption(what string) *string {
	if d.readByte(what) == 0 {
		return nil
	}
	value := d.readString(what)
	return &value
}

// finish reports a decoding error or trailing garbage.
func (d *decoder) finish(entity string) error {
	if d.err != nil {
		return fmt.Errorf("could not decode %v: [%v]", entity, d.err)
	}
	if d.offset != len(d.buffer) {
		return fmt.Errorf(
			"could not decode %v: [%v] trailing bytes",
			entity,
			len(d.buffer)-d.offset,
		)
	}
	return nil
}
