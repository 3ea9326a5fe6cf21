package entities

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// RecordVersion is the layout version byte written first
	RecordVersion byte = 1

	MaxCodeLen     = 32
	MaxIdentityLen = 64
	MaxMarkerLen   = 16

	// RecordSize is the encoded size of every record. Slots are always
	// present and padded, so the size never depends on how many players joined.
	RecordSize = 1 + // version
		1 + // game type
		1 + MaxCodeLen + // code
		8 + // wager
		1 + 1 + 1 + // min, max, joined
		MaxSlots*(1+MaxIdentityLen) + // players
		MaxSlots*(1+MaxMarkerLen) + // markers
		1 + MaxIdentityLen + // winner
		8 + 8 // created, updated
)

var ErrCorruptRecord = errors.New("corrupt game record")

// EncodeRecord writes the fixed binary layout of g. Records that break the
// slot invariants are refused.
func EncodeRecord(g *GameRecord) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game record: %w", err)
	}

	out := make([]byte, 0, RecordSize)
	out = append(out, RecordVersion, byte(g.GameType))

	var err error
	if out, err = appendPadded(out, g.Code, MaxCodeLen); err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}

	out = binary.BigEndian.AppendUint64(out, g.Wager)
	out = append(out, g.MinPlayers, g.MaxPlayers, g.PlayersJoined)

	for i := 0; i < MaxSlots; i++ {
		if out, err = appendPadded(out, string(g.Players[i]), MaxIdentityLen); err != nil {
			return nil, fmt.Errorf("player %d: %w", i, err)
		}
	}
	for i := 0; i < MaxSlots; i++ {
		if out, err = appendPadded(out, string(g.Markers[i]), MaxMarkerLen); err != nil {
			return nil, fmt.Errorf("marker %d: %w", i, err)
		}
	}
	if out, err = appendPadded(out, string(g.Winner), MaxIdentityLen); err != nil {
		return nil, fmt.Errorf("winner: %w", err)
	}

	out = binary.BigEndian.AppendUint64(out, unixNanos(g.CreatedAt))
	out = binary.BigEndian.AppendUint64(out, unixNanos(g.UpdatedAt))
	return out, nil
}

// DecodeRecord reads a record previously written by EncodeRecord
func DecodeRecord(addr Address, data []byte) (*GameRecord, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("%w: size %d, want %d", ErrCorruptRecord, len(data), RecordSize)
	}
	r := &rd{b: data}

	if v := r.u8(); v != RecordVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCorruptRecord, v)
	}

	g := &GameRecord{Address: addr}
	g.GameType = GameType(r.u8())
	g.Code = r.padded(MaxCodeLen)
	g.Wager = r.u64()
	g.MinPlayers = r.u8()
	g.MaxPlayers = r.u8()
	g.PlayersJoined = r.u8()
	for i := 0; i < MaxSlots; i++ {
		g.Players[i] = Identity(r.padded(MaxIdentityLen))
	}
	for i := 0; i < MaxSlots; i++ {
		g.Markers[i] = Marker(r.padded(MaxMarkerLen))
	}
	g.Winner = Identity(r.padded(MaxIdentityLen))
	g.CreatedAt = fromUnixNanos(r.u64())
	g.UpdatedAt = fromUnixNanos(r.u64())

	if r.err != nil {
		return nil, r.err
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return g, nil
}

// zero time is stored as 0
func unixNanos(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}

func fromUnixNanos(v uint64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(v)).UTC()
}

func appendPadded(out []byte, s string, width int) ([]byte, error) {
	if len(s) > width {
		return nil, fmt.Errorf("value of %d bytes exceeds %d", len(s), width)
	}
	out = append(out, byte(len(s)))
	out = append(out, s...)
	return append(out, make([]byte, width-len(s))...), nil
}

// rd reads fields in order, remembering the first failure
type rd struct {
	b   []byte
	i   int
	err error
}

func (r *rd) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.i+n > len(r.b) {
		r.err = fmt.Errorf("%w: decode overflow at %d", ErrCorruptRecord, r.i)
		return false
	}
	return true
}

func (r *rd) u8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.i]
	r.i++
	return v
}

func (r *rd) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.b[r.i : r.i+8])
	r.i += 8
	return v
}

func (r *rd) padded(width int) string {
	l := int(r.u8())
	if !r.need(width) {
		return ""
	}
	if l > width {
		r.err = fmt.Errorf("%w: length %d exceeds field width %d", ErrCorruptRecord, l, width)
		return ""
	}
	v := string(r.b[r.i : r.i+l])
	r.i += width
	return v
}
