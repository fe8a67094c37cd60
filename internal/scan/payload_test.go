package scan

import (
	"testing"

	pkgerrors "github.com/mconcas/pantrybot-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_single(t *testing.T) {
	batch, err := ParsePayload([]byte(`{"code":"4000417025005","format":"ean_13","mode":"add"}`))
	require.NoError(t, err)
	assert.Equal(t, ModeAdd, batch.Mode)
	require.Len(t, batch.Scans, 1)
	assert.Equal(t, "4000417025005", batch.Scans[0].Code)
	assert.Equal(t, "ean_13", batch.Scans[0].Format)
}

func TestParsePayload_batchRemove(t *testing.T) {
	batch, err := ParsePayload([]byte(`{"mode":"remove","scans":[{"code":"111"},{"code":"  "},{"code":"222"}]}`))
	require.NoError(t, err)
	assert.Equal(t, ModeRemove, batch.Mode)
	require.Len(t, batch.Scans, 2)
	assert.Equal(t, "111", batch.Scans[0].Code)
	assert.Equal(t, "222", batch.Scans[1].Code)
}

func TestParsePayload_modeDefaultsToAdd(t *testing.T) {
	batch, err := ParsePayload([]byte(`{"code":"111"}`))
	require.NoError(t, err)
	assert.Equal(t, ModeAdd, batch.Mode)
}

func TestParsePayload_rejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed json":                   `{"code":`,
		"unknown mode":                     `{"code":"111","mode":"audit"}`,
		"no barcodes":                      `{"mode":"add","scans":[]}`,
		"blank code":                       `{"code":"   "}`,
		"reserved delimiter in code":       `{"code":"12:34"}`,
		"reserved delimiter in batch code": `{"mode":"remove","scans":[{"code":"111"},{"code":"12:34"}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePayload([]byte(payload))
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}
