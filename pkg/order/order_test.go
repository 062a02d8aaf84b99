package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleOrder(t *testing.T) {
	got, err := Parse(`{"domain":"spotify","command":"play","args":{"song":"Take Five","volume":40}}`)
	require.NoError(t, err)

	want := []Order{{Domain: "spotify", Command: "play", Args: map[string]string{"song": "Take Five", "volume": "40"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Containers(t *testing.T) {
	batch, err := Parse(`{"orders":[{"domain":"chrome","command":"open"},{"domain":"files","command":"find","args":{"name":"x"}}]}`)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "chrome.open", batch[0].Key())
	assert.Empty(t, batch[0].Args)

	arr, err := Parse(`[{"domain":"mapp","command":"left"}]`)
	require.NoError(t, err)
	assert.Equal(t, "mapp", arr[0].Domain)
}

func TestParse_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"spotify play foo",
		`{"domain":"","command":"play"}`,
		`{"domain":"spotify"}`,
		`{"domain":"spotify","command":"play","args":"nope"}`,
		`{"orders":[{"domain":"a","command":"b"},{"domain":"a"}]}`,
		`{"orders":[]}`,
		`{"orders":"x"}`,
		`42`,
	}
	for _, in := range inputs {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestSplitKey(t *testing.T) {
	d, c, ok := SplitKey("chrome.open.tab")
	require.True(t, ok)
	assert.Equal(t, "chrome", d)
	assert.Equal(t, "open.tab", c)

	_, _, ok = SplitKey("nodot")
	assert.False(t, ok)
}

func TestMarshal(t *testing.T) {
	one, err := Marshal([]Order{{Domain: "a", Command: "b", Args: map[string]string{}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"domain":"a","command":"b","args":{}}`, string(one))

	many, err := Marshal([]Order{{Domain: "a", Command: "b"}, {Domain: "c", Command: "d"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orders":[{"domain":"a","command":"b","args":null},{"domain":"c","command":"d","args":null}]}`, string(many))
}
