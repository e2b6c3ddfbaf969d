package storage

import (
	"encoding/json"
	"errors"
)

// Versions written into every record. Records with other versions are
// rejected on decode.
const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// ErrVersionMismatch is returned when a stored record was written with a
// different schema or codec version.
var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeExperiment serialises r as JSON.
func EncodeExperiment(r ExperimentRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeExperiment parses data and checks its versions.
func DecodeExperiment(data []byte) (ExperimentRecord, error) {
	var record ExperimentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ExperimentRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return ExperimentRecord{}, err
	}
	return record, nil
}

// EncodeRun serialises r as JSON.
func EncodeRun(r RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRun parses data and checks its versions.
func DecodeRun(data []byte) (RunRecord, error) {
	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return RunRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return RunRecord{}, err
	}
	return record, nil
}

// EncodeSnapshot serialises r as JSON.
func EncodeSnapshot(r SnapshotRecord) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeSnapshot parses data and checks its versions.
func DecodeSnapshot(data []byte) (SnapshotRecord, error) {
	var record SnapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return SnapshotRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return SnapshotRecord{}, err
	}
	return record, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
