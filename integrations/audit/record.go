package audit

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	"lukechampine.com/blake3"

	"domaauction/core/types"
)

// Record is one committed event in the append-only audit chain. Hash covers
// the previous hash, the sequence number, the event type and the canonical
// attribute encoding.
type Record struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Seq        uint64    `gorm:"uniqueIndex;not null"`
	Type       string    `gorm:"index;size:64;not null"`
	LotID      string    `gorm:"index;size:32"`
	Attributes string    `gorm:"type:text;not null"`
	PrevHash   string    `gorm:"size:64;not null"`
	Hash       string    `gorm:"size:64;not null"`
	RecordedAt time.Time `gorm:"not null"`
}

func (Record) TableName() string { return "auction_audit_records" }

// Event decodes the record back into the event it was built from.
func (r *Record) Event() (*types.Event, error) {
	attrs := map[string]string{}
	if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
		return nil, err
	}
	return &types.Event{Type: r.Type, Attributes: attrs}, nil
}

// encodeAttributes relies on encoding/json sorting map keys, which makes the
// output canonical for hashing.
func encodeAttributes(attrs map[string]string) (string, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func chainHash(prev [32]byte, seq uint64, eventType, attributes string) [32]byte {
	buf := make([]byte, 0, len(prev)+8+len(eventType)+1+len(attributes))
	buf = append(buf, prev[:]...)
	buf = binary.BigEndian.AppendUint64(buf, seq)
	buf = append(buf, eventType...)
	buf = append(buf, 0)
	buf = append(buf, attributes...)
	return blake3.Sum256(buf)
}

func decodeHash(value string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(value)
	if err != nil {
		return out, err
	}
	if len(raw) != len(out) {
		return out, hex.ErrLength
	}
	copy(out[:], raw)
	return out, nil
}
