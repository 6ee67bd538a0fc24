// Package wire frames cached records.
//
//	magic(4)="DDBS" | ver(1) | gen(u64 be) | stamp(i64 be, unix nanos) | plen(u32 be) | payload(plen)
//
// gen ties the entry to the record generation observed before the store read;
// stamp is the time the record was read from the store.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 8 + 4
)

var (
	ErrCorrupt = errors.New("ddbsession: corrupt cache entry")
	magic4     = [...]byte{'D', 'D', 'B', 'S'}
)

// Record is a decoded cache entry. Payload aliases the input slice.
type Record struct {
	Gen     uint64
	Fetched time.Time
	Payload []byte
}

func EncodeRecord(gen uint64, fetched time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint64(u8[:], uint64(fetched.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeRecord rejects bad magic, unknown versions, short input and trailing bytes.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Record{}, ErrCorrupt
	}
	off := 5

	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	stamp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen != len(b)-off {
		return Record{}, ErrCorrupt
	}

	return Record{Gen: gen, Fetched: time.Unix(0, stamp), Payload: b[off:]}, nil
}
