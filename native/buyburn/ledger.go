package buyburn

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Storage abstracts the subset of key-value state the round ledger needs.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// RoundRecord captures the accounting of one committed round: what went in,
// what the caller earned, and what was burned. Amounts are the realized
// (post-transfer-tax) values, not nominal ones.
type RoundRecord struct {
	Seq           uint64
	Caller        [20]byte
	ExecutedAt    int64
	PrimaryIn     *big.Int
	SecondaryIn   *big.Int
	FeePaid       *big.Int
	TargetABurned *big.Int
	TargetBBurned *big.Int
}

// Copy returns a deep copy to avoid callers mutating shared pointers.
func (r *RoundRecord) Copy() *RoundRecord {
	if r == nil {
		return nil
	}
	clone := *r
	clone.PrimaryIn = copyAmount(r.PrimaryIn)
	clone.SecondaryIn = copyAmount(r.SecondaryIn)
	clone.FeePaid = copyAmount(r.FeePaid)
	clone.TargetABurned = copyAmount(r.TargetABurned)
	clone.TargetBBurned = copyAmount(r.TargetBBurned)
	return &clone
}

type storedRoundRecord struct {
	Seq           uint64
	Caller        [20]byte
	ExecutedAt    uint64
	PrimaryIn     string
	SecondaryIn   string
	FeePaid       string
	TargetABurned string
	TargetBBurned string
}

// Ledger persists round records append-only in the underlying key-value store.
type Ledger struct {
	store Storage
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(store Storage) *Ledger {
	return &Ledger{store: store}
}

// Append stores the round record under its sequence number and commits it by
// appending the sequence to the index. The index write is the commit point:
// sequences already present in the index are write-once, while a record key
// left behind by an append whose index write failed is a partial write and is
// overwritten on retry rather than reported as a conflict.
func (l *Ledger) Append(record *RoundRecord) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("buyburn: ledger not initialised")
	}
	if record == nil {
		return fmt.Errorf("buyburn: ledger record must not be nil")
	}
	seqs, err := l.Seqs()
	if err != nil {
		return err
	}
	for _, seq := range seqs {
		if seq == record.Seq {
			return fmt.Errorf("buyburn: round %d already recorded", record.Seq)
		}
	}
	stored := toStoredRound(record)
	if err := l.store.KVPut(roundKey(record.Seq), stored); err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(record.Seq)
	if err != nil {
		return err
	}
	return l.store.KVAppend(roundIndexKey, encoded)
}

// Get retrieves a round record by sequence number.
func (l *Ledger) Get(seq uint64) (*RoundRecord, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, fmt.Errorf("buyburn: ledger not initialised")
	}
	var stored storedRoundRecord
	ok, err := l.store.KVGet(roundKey(seq), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	record, err := fromStoredRound(&stored)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Seqs returns every recorded round sequence in append order.
func (l *Ledger) Seqs() ([]uint64, error) {
	if l == nil || l.store == nil {
		return nil, fmt.Errorf("buyburn: ledger not initialised")
	}
	var raw [][]byte
	if err := l.store.KVGetList(roundIndexKey, &raw); err != nil {
		return nil, err
	}
	seqs := make([]uint64, 0, len(raw))
	for _, entry := range raw {
		var seq uint64
		if err := rlp.DecodeBytes(entry, &seq); err != nil {
			return nil, fmt.Errorf("buyburn: decode round index: %w", err)
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

func toStoredRound(record *RoundRecord) storedRoundRecord {
	stored := storedRoundRecord{Seq: record.Seq, Caller: record.Caller}
	if record.ExecutedAt > 0 {
		stored.ExecutedAt = uint64(record.ExecutedAt)
	}
	stored.PrimaryIn = copyAmount(record.PrimaryIn).String()
	stored.SecondaryIn = copyAmount(record.SecondaryIn).String()
	stored.FeePaid = copyAmount(record.FeePaid).String()
	stored.TargetABurned = copyAmount(record.TargetABurned).String()
	stored.TargetBBurned = copyAmount(record.TargetBBurned).String()
	return stored
}

func fromStoredRound(stored *storedRoundRecord) (*RoundRecord, error) {
	record := &RoundRecord{Seq: stored.Seq, Caller: stored.Caller, ExecutedAt: int64(stored.ExecutedAt)}
	for _, field := range []struct {
		raw string
		dst **big.Int
	}{
		{stored.PrimaryIn, &record.PrimaryIn},
		{stored.SecondaryIn, &record.SecondaryIn},
		{stored.FeePaid, &record.FeePaid},
		{stored.TargetABurned, &record.TargetABurned},
		{stored.TargetBBurned, &record.TargetBBurned},
	} {
		amount, ok := new(big.Int).SetString(field.raw, 10)
		if !ok {
			return nil, fmt.Errorf("buyburn: corrupt round amount %q", field.raw)
		}
		*field.dst = amount
	}
	return record, nil
}
