//go:build !windows

package run

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/alfred/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "orders.json"), []byte(`{
  "lights": {"script": "lights.sh", "commands": {"on": {"args": ["on", "<room>"]}}}
}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "lights.sh"),
		[]byte("#!/bin/sh\necho '{\"ok\":true}'\n"), 0o755))
	return config.DefaultConfigAt(home)
}

func TestDispatchPayload_PrintsSummary(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := dispatchPayload(t.Context(), cfg, &out, `{"domain":"lights","command":"on","args":{"room":"hall"}}`)
	require.NoError(t, err)

	var got struct {
		OK      bool             `json:"ok"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.True(t, got.OK)
	require.Len(t, got.Results, 1)
	assert.FileExists(t, cfg.HistoryPath())
}

func TestDispatchPayload_FailureIsAnError(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := dispatchPayload(t.Context(), cfg, &out, `{"orders":[{"domain":"lights","command":"on"}]}`)
	assert.ErrorIs(t, err, errOrdersFailed)
	assert.Contains(t, out.String(), `"ok": false`)
}

func TestDispatchPayload_InvalidJSON(t *testing.T) {
	err := dispatchPayload(t.Context(), testConfig(t), &bytes.Buffer{}, "turn on the lights")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payload")
}

func TestPrintOrders_Normalizes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printOrders(&out, `{"domain":"lights","command":"dim","args":{"level":40,"fade":true}}`))
	assert.JSONEq(t, `{"domain":"lights","command":"dim","args":{"level":"40","fade":"true"}}`, out.String())

	out.Reset()
	require.NoError(t, printOrders(&out, `{"orders":[{"domain":"a","command":"b"},{"domain":"c","command":"d"}]}`))
	var batch struct {
		Orders []map[string]any `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &batch))
	assert.Len(t, batch.Orders, 2)

	assert.Error(t, printOrders(&bytes.Buffer{}, "[]"))
}
