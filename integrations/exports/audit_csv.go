package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"

	"domaauction/integrations/audit"
)

var csvHeader = []string{"seq", "id", "type", "lot_id", "attributes", "prev_hash", "hash", "recorded_at"}

// AuditCSV builds a CSV export of the supplied audit records and returns the
// serialised data alongside a SHA-256 checksum of the payload.
func AuditCSV(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, rec := range records {
		row := []string{
			strconv.FormatUint(rec.Seq, 10),
			rec.ID,
			rec.Type,
			rec.LotID,
			rec.Attributes,
			rec.PrevHash,
			rec.Hash,
			rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return checksummed(buffer.Bytes())
}

func checksummed(data []byte) ([]byte, string, error) {
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}
