package exports

import (
	"bytes"
	"encoding/json"
	"time"

	"domaauction/integrations/audit"
)

type jsonlRecord struct {
	Seq        uint64            `json:"seq"`
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	LotID      string            `json:"lotId,omitempty"`
	Attributes map[string]string `json:"attributes"`
	PrevHash   string            `json:"prevHash"`
	Hash       string            `json:"hash"`
	RecordedAt string            `json:"recordedAt"`
}

// AuditJSONL builds a JSON Lines export with decoded attributes and returns
// the payload alongside a checksum.
func AuditJSONL(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for i := range records {
		rec := &records[i]
		evt, err := rec.Event()
		if err != nil {
			return nil, "", err
		}
		line := jsonlRecord{
			Seq:        rec.Seq,
			ID:         rec.ID,
			Type:       rec.Type,
			LotID:      rec.LotID,
			Attributes: evt.Attributes,
			PrevHash:   rec.PrevHash,
			Hash:       rec.Hash,
			RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := encoder.Encode(line); err != nil {
			return nil, "", err
		}
	}
	return checksummed(buffer.Bytes())
}
