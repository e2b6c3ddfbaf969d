package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExperimentFixture(t *testing.T) {
	data := []byte(`{
		"schema_version": 1,
		"codec_version": 1,
		"experiment": {"id": "exp-1", "function": "Branin", "model": "STD", "runs": 4, "evals": 100},
		"summary": {"actual_mean": 0.75, "popular": [{"key": "0.500,0.100", "count": 3, "actual": 0.9}]}
	}`)

	record, err := DecodeExperiment(data)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", record.Experiment.ID)
	assert.Equal(t, 4, record.Experiment.Runs)
	require.Len(t, record.Summary.Popular, 1)
	assert.Equal(t, 3, record.Summary.Popular[0].Count)
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeExperiment([]byte(`{"schema_version": 2, "codec_version": 1}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, err = DecodeRun([]byte(`{"schema_version": 1, "codec_version": 0}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)

	_, err = DecodeSnapshot([]byte(`{}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	_, err := DecodeRun([]byte(`not json`))
	assert.Error(t, err)
}
