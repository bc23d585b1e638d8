package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"heredity/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrTruncatedStream = errors.New("truncated parameter stream")
)

func EncodeGenome(g model.GenomeRecord) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenome(data []byte) (model.GenomeRecord, error) {
	var genome model.GenomeRecord
	if err := json.Unmarshal(data, &genome); err != nil {
		return model.GenomeRecord{}, err
	}
	if err := checkVersion(genome.VersionedRecord); err != nil {
		return model.GenomeRecord{}, err
	}
	return genome, nil
}

func EncodeLineage(record model.LineageRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeLineage(data []byte) (model.LineageRecord, error) {
	var record model.LineageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.LineageRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.LineageRecord{}, err
	}
	return record, nil
}

// EncodeParameterStream writes each record as big-endian int32 chromosome,
// gene and factor followed by a float64 value, and returns the stream in
// standard Base64.
func EncodeParameterStream(records []model.ParameterRecord) (string, error) {
	var buf bytes.Buffer
	for _, r := range records {
		if err := binary.Write(&buf, binary.BigEndian, r); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeParameterStream reads records until the stream ends. A stream that
// ends inside a record fails with ErrTruncatedStream.
func DecodeParameterStream(encoded string) ([]model.ParameterRecord, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	r := bytes.NewReader(raw)
	records := make([]model.ParameterRecord, 0, len(raw)/binary.Size(model.ParameterRecord{}))
	for {
		var record model.ParameterRecord
		err := binary.Read(r, binary.BigEndian, &record)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record %d", ErrTruncatedStream, len(records))
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
