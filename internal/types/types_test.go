package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNameAcceptsAllowedCharacters(t *testing.T) {
	assert.NoError(t, ValidateName("worker-1_ok"))
	assert.NoError(t, ValidateName(""))
}

func TestValidateNameRejectsDisallowedCharacters(t *testing.T) {
	assert.Error(t, ValidateName("worker 1"))
	assert.Error(t, ValidateName("worker/1"))
	assert.Error(t, ValidateName("worker.1"))
}

func TestUpdateMetaRoundTripsThroughJSON(t *testing.T) {
	meta := UpdateMeta{
		FetchModel:       1.5,
		ExecTraining:     2.25,
		UploadModel:      0.75,
		TrainingMetadata: json.RawMessage(`{"loss":0.1}`),
		ProcessingTime:   4.5,
		Config:           `{"epochs":1}`,
	}
	data, err := json.Marshal(meta)
	assert.NoError(t, err)

	var decoded UpdateMeta
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, meta.FetchModel, decoded.FetchModel)
	assert.Equal(t, meta.Config, decoded.Config)
	assert.JSONEq(t, `{"loss":0.1}`, string(decoded.TrainingMetadata))
}
