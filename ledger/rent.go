package ledger

// Rent mirrors the host's rent-exemption rule: an account must hold enough
// lamports to cover two years of storage for its data plus a fixed overhead.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

const AccountStorageOverhead = 128

// Sizes of the token program's account layouts.
const (
	TokenAccountSize = 165
	MintSize         = 82
)

var DefaultRent = Rent{
	LamportsPerByteYear: 3480,
	ExemptionYears:      2,
}

func (r Rent) MinimumBalance(dataLen int) uint64 {
	return (AccountStorageOverhead + uint64(dataLen)) * r.LamportsPerByteYear * r.ExemptionYears
}
