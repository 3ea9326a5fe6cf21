package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLudo() *GameRecord {
	return &GameRecord{
		Address:       "addr-1",
		Code:          "7",
		GameType:      GameTypeLudo,
		Wager:         100,
		MinPlayers:    2,
		MaxPlayers:    4,
		PlayersJoined: 2,
		Players:       [MaxSlots]Identity{"alice", "bob"},
		Markers:       [MaxSlots]Marker{"red", "blue"},
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	}
}

func TestGameRecordQueries(t *testing.T) {
	g := openLudo()

	assert.Equal(t, Identity("alice"), g.Creator())
	assert.Equal(t, []Identity{"alice", "bob"}, g.JoinedPlayers())
	assert.True(t, g.HasPlayer("bob"))
	assert.False(t, g.HasPlayer("carol"))
	assert.False(t, g.HasPlayer(NoIdentity))
	assert.False(t, g.IsFull())
	assert.False(t, g.IsResolved())
	assert.Equal(t, uint64(200), g.ExpectedEscrow())

	slot, ok := g.SlotForMarker("blue")
	assert.True(t, ok)
	assert.Equal(t, 1, slot)

	_, ok = g.SlotForMarker("green")
	assert.False(t, ok, "green belongs to an unjoined slot")
}

func TestGameRecordValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(g *GameRecord)
		wantErr bool
	}{
		{name: "valid", mutate: func(g *GameRecord) {}},
		{name: "zero joined", mutate: func(g *GameRecord) { g.PlayersJoined = 0 }, wantErr: true},
		{name: "joined above max", mutate: func(g *GameRecord) { g.MaxPlayers = 1 }, wantErr: true},
		{name: "max above slots", mutate: func(g *GameRecord) { g.MaxPlayers = 5 }, wantErr: true},
		{name: "duplicate identity", mutate: func(g *GameRecord) { g.Players[1] = "alice" }, wantErr: true},
		{name: "empty joined slot", mutate: func(g *GameRecord) { g.Players[1] = NoIdentity }, wantErr: true},
		{name: "dirty unjoined slot", mutate: func(g *GameRecord) { g.Players[3] = "mallory" }, wantErr: true},
		{name: "winner not joined", mutate: func(g *GameRecord) { g.Winner = "carol" }, wantErr: true},
		{name: "winner joined", mutate: func(g *GameRecord) { g.Winner = "bob" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := openLudo()
			tc.mutate(g)
			err := g.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountSpendable(t *testing.T) {
	assert.Equal(t, uint64(70), (&Account{Balance: 100, Reserve: 30}).Spendable())
	assert.Equal(t, uint64(0), (&Account{Balance: 10, Reserve: 30}).Spendable())
}

func TestRecordCodecRoundTrip(t *testing.T) {
	g := openLudo()
	g.Winner = "bob"

	data, err := EncodeRecord(g)
	require.NoError(t, err)
	assert.Len(t, data, RecordSize)

	decoded, err := DecodeRecord(g.Address, data)
	require.NoError(t, err)
	assert.Equal(t, g, decoded)
}

func TestRecordCodecFixedSize(t *testing.T) {
	small := openLudo()
	full := openLudo()
	full.PlayersJoined = 4
	full.Players = [MaxSlots]Identity{"alice", "bob", "carol", "dave"}
	full.Markers = [MaxSlots]Marker{"red", "blue", "green", "yellow"}

	a, err := EncodeRecord(small)
	require.NoError(t, err)
	b, err := EncodeRecord(full)
	require.NoError(t, err)

	assert.Equal(t, len(a), len(b))
}

func TestRecordCodecRejectsOversizedFields(t *testing.T) {
	g := openLudo()
	g.Code = string(make([]byte, MaxCodeLen+1))

	_, err := EncodeRecord(g)
	assert.Error(t, err)
}

func TestEncodeRecordRejectsInvalidRecord(t *testing.T) {
	g := openLudo()
	g.Players[3] = "mallory"

	_, err := EncodeRecord(g)
	assert.Error(t, err)
}

func TestDecodeRecordRejectsBrokenInvariants(t *testing.T) {
	data, err := EncodeRecord(openLudo())
	require.NoError(t, err)

	// version, type, code, wager, then min, max, joined
	counts := 1 + 1 + 1 + MaxCodeLen + 8
	testCases := []struct {
		name  string
		patch func(b []byte)
	}{
		{name: "max above slots", patch: func(b []byte) { b[counts+1], b[counts+2] = 5, 4 }},
		{name: "joined above max", patch: func(b []byte) { b[counts+1], b[counts+2] = 2, 3 }},
		{name: "joined slot empty", patch: func(b []byte) { b[counts+2] = 3 }},
		{name: "no players", patch: func(b []byte) { b[counts+2] = 0 }},
		{name: "min above max", patch: func(b []byte) { b[counts] = 4; b[counts+1] = 3 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bad := append([]byte(nil), data...)
			tc.patch(bad)

			_, err := DecodeRecord("addr-1", bad)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestDecodeRecordRejectsCorruptData(t *testing.T) {
	g := openLudo()
	data, err := EncodeRecord(g)
	require.NoError(t, err)

	_, err = DecodeRecord(g.Address, data[:10])
	assert.ErrorIs(t, err, ErrCorruptRecord)

	bad := append([]byte(nil), data...)
	bad[0] = 9
	_, err = DecodeRecord(g.Address, bad)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	bad = append([]byte(nil), data...)
	bad[2] = MaxCodeLen + 1
	_, err = DecodeRecord(g.Address, bad)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
