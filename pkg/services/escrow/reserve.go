package escrow

import "github.com/fadedpez/wagerescrow/pkg/entities"

const (
	// AccountStorageOverhead is charged on top of every account's data
	AccountStorageOverhead = 128

	// RecordAccountSize is a game record's data plus its 8-byte discriminator
	RecordAccountSize = 8 + entities.RecordSize

	// CustodyAccountSize is the data size of a wrapped-token custody account
	CustodyAccountSize = 165

	DefaultPerByteYear        = 3480
	DefaultExemptionThreshold = 2
)

// ReserveSchedule computes the baseline balance an account must hold to exist
type ReserveSchedule struct {
	PerByteYear        uint64
	ExemptionThreshold uint64
}

func DefaultReserveSchedule() ReserveSchedule {
	return ReserveSchedule{
		PerByteYear:        DefaultPerByteYear,
		ExemptionThreshold: DefaultExemptionThreshold,
	}
}

// MinimumBalance is the reserve for an account holding dataLen bytes
func (r ReserveSchedule) MinimumBalance(dataLen int) uint64 {
	return uint64(AccountStorageOverhead+dataLen) * r.PerByteYear * r.ExemptionThreshold
}
