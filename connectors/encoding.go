package connectors

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
)

// Format names a record encoding for sinks.
type Format string

const (
	// FormatJSON encodes a record as a JSON array of strings.
	FormatJSON Format = "json"

	// FormatCSV encodes a record as one RFC 4180 line without the trailing
	// newline.
	FormatCSV Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown record format")

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// EncodeRecord turns a record into a SinkRecord keyed by its first field.
func EncodeRecord(format Format, record Record) (SinkRecord, error) {
	var key string
	if len(record) > 0 {
		key = record[0]
	}

	switch format {
	case FormatJSON, "":
		data, err := json.Marshal([]string(record))
		if err != nil {
			return SinkRecord{}, fmt.Errorf("encode json record: %w", err)
		}
		return SinkRecord{Key: key, Value: data}, nil
	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(record); err != nil {
			return SinkRecord{}, fmt.Errorf("encode csv record: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return SinkRecord{}, fmt.Errorf("encode csv record: %w", err)
		}
		return SinkRecord{Key: key, Value: bytes.TrimSuffix(buf.Bytes(), []byte("\n"))}, nil
	default:
		panic(fmt.Sprintf("BUG: unknown record format %q", format))
	}
}
