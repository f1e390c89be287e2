package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"evonas/internal/descriptor"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeDescriptor serializes a descriptor for archival. The concrete type
// is recovered from the record's Kind on decode.
func EncodeDescriptor(d descriptor.Descriptor) ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDescriptor rebuilds the concrete descriptor stored in a record.
func DecodeDescriptor(rec GenomeRecord) (descriptor.Descriptor, error) {
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return nil, err
	}
	var d descriptor.Descriptor
	switch rec.Kind {
	case descriptor.KindMLP:
		d = descriptor.NewMLPDescriptor()
	case descriptor.KindConv:
		d = descriptor.NewConvDescriptor()
	case descriptor.KindTConv:
		d = descriptor.NewTConvDescriptor()
	default:
		return nil, fmt.Errorf("unknown archived descriptor kind: %s", rec.Kind)
	}
	if err := json.Unmarshal(rec.Payload, d); err != nil {
		return nil, err
	}
	return d, nil
}

func EncodeRecord(rec GenomeRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeRecord(data []byte) (GenomeRecord, error) {
	var rec GenomeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return GenomeRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return GenomeRecord{}, err
	}
	return rec, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
