package exports

import (
	"fmt"
	"os"
	"path/filepath"

	"domaauction/integrations/audit"
)

// Bundle describes the files written by WriteBundle.
type Bundle struct {
	Records       int
	CSVPath       string
	CSVChecksum   string
	JSONLPath     string
	JSONLChecksum string
	ParquetPath   string
}

// WriteBundle writes CSV, JSONL and parquet exports named prefix.* into dir.
func WriteBundle(dir, prefix string, records []audit.Record) (*Bundle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("exports: create dir: %w", err)
	}
	bundle := &Bundle{
		Records:     len(records),
		CSVPath:     filepath.Join(dir, prefix+".csv"),
		JSONLPath:   filepath.Join(dir, prefix+".jsonl"),
		ParquetPath: filepath.Join(dir, prefix+".parquet"),
	}
	data, checksum, err := AuditCSV(records)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(bundle.CSVPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("exports: write csv: %w", err)
	}
	bundle.CSVChecksum = checksum

	data, checksum, err = AuditJSONL(records)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(bundle.JSONLPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("exports: write jsonl: %w", err)
	}
	bundle.JSONLChecksum = checksum

	if err := AuditParquet(bundle.ParquetPath, records); err != nil {
		return nil, err
	}
	return bundle, nil
}
