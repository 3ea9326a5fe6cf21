package addressing

import (
	"encoding/binary"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/google/uuid"
)

const (
	GameSeedTag    = "game"
	CustodySeedTag = "custody"
	WalletSeedTag  = "wallet"
)

// namespace scopes every derived address to this ledger
var namespace = uuid.MustParse("6f1d3c9e-2b7a-5e40-9c1f-8a2d4b6e0c37")

// Derive maps (seedTag, code, gameType) to a stable address. The seed is
// length-prefixed so distinct inputs never share an encoding.
func Derive(seedTag, code string, gameType entities.GameType) entities.Address {
	seed := make([]byte, 0, len(seedTag)+len(code)+binary.MaxVarintLen64+2)
	seed = append(seed, seedTag...)
	seed = append(seed, 0)
	seed = binary.AppendUvarint(seed, uint64(len(code)))
	seed = append(seed, code...)
	seed = append(seed, byte(gameType))
	return entities.Address(uuid.NewSHA1(namespace, seed).String())
}

// GameAddress is the record address for a (code, type) pair
func GameAddress(code string, gameType entities.GameType) entities.Address {
	return Derive(GameSeedTag, code, gameType)
}

// CustodyAddress is the wrapped-token custody account owned by a record
func CustodyAddress(record entities.Address) entities.Address {
	return entities.Address(uuid.NewSHA1(namespace, []byte(CustodySeedTag+"\x00"+string(record))).String())
}

// WalletAddress is the account holding an identity's funds. Wallets have
// their own seed tag, so no identity can name a game or custody account.
func WalletAddress(id entities.Identity) entities.Address {
	return entities.Address(uuid.NewSHA1(namespace, []byte(WalletSeedTag+"\x00"+string(id))).String())
}
