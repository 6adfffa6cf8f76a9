package jsontemplate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/h2ofixture/config/jsontemplate"
)

type testNested struct {
	Addr  string `json:"addr"`
	Ratio float64
}

type testTarget struct {
	Count   int32       `json:"count"`
	Enabled bool        `json:"enabled"`
	Name    string      `json:"name"`
	Hosts   []string    `json:"hosts"`
	Nested  *testNested `json:"nested,omitempty"`
	Items   []testNested
	Hidden  string `json:"-"`
}

func resolve(t *testing.T, doc string, params map[string]string) (map[string]any, error) {
	t.Helper()
	p := jsontemplate.NewParams()
	for k, v := range params {
		p.Set(k, v)
	}

	result, err := jsontemplate.Resolve([]byte(doc), &testTarget{}, p)
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(result, &parsed))
	return parsed, nil
}

func TestResolveIntegerParameter(t *testing.T) {
	parsed, err := resolve(t, `{"count": {"$param": "COUNT"}}`, map[string]string{"COUNT": "5"})
	require.NoError(t, err)

	// JSON numbers are parsed as float64 by the json package
	assert.Equal(t, float64(5), parsed["count"])
}

func TestResolveBooleanParameter(t *testing.T) {
	parsed, err := resolve(t, `{"enabled": {"$param": "ENABLED"}}`, map[string]string{"ENABLED": "true"})
	require.NoError(t, err)
	assert.Equal(t, true, parsed["enabled"])
}

func TestResolveStringParameter(t *testing.T) {
	parsed, err := resolve(t, `{"name": {"$param": "NAME"}}`, map[string]string{"NAME": "h2o"})
	require.NoError(t, err)
	assert.Equal(t, "h2o", parsed["name"])
}

func TestResolveNestedParameters(t *testing.T) {
	parsed, err := resolve(t, `{
		"nested": {"addr": {"$param": "ADDR"}, "ratio": {"$param": "RATIO"}},
		"Items": [{"addr": "fixed"}, {"addr": {"$param": "ADDR"}}]
	}`, map[string]string{"ADDR": "http://localhost", "RATIO": "0.25"})
	require.NoError(t, err)

	nested := parsed["nested"].(map[string]any)
	assert.Equal(t, "http://localhost", nested["addr"])
	assert.Equal(t, 0.25, nested["ratio"], "untagged fields match case-insensitively")

	items := parsed["Items"].([]any)
	assert.Equal(t, "fixed", items[0].(map[string]any)["addr"])
	assert.Equal(t, "http://localhost", items[1].(map[string]any)["addr"])
}

func TestResolveLeavesLiteralsAlone(t *testing.T) {
	parsed, err := resolve(t, `{"count": 3, "hosts": ["a", "b"]}`, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(3), parsed["count"])
	assert.Equal(t, []any{"a", "b"}, parsed["hosts"])
}

func TestResolveErrors(t *testing.T) {
	_, err := resolve(t, `{"count": {"$param": "MISSING"}}`, nil)
	assert.ErrorContains(t, err, `missing parameter "MISSING"`)

	_, err = resolve(t, `{"count": {"$param": "COUNT"}}`, map[string]string{"COUNT": "many"})
	assert.ErrorContains(t, err, `parameter for "count" is not a valid int32`)

	_, err = resolve(t, `{"hosts": {"$param": "HOSTS"}}`, map[string]string{"HOSTS": "a,b"})
	assert.ErrorContains(t, err, `cannot use $param for repeated (array) field "hosts"`)

	_, err = resolve(t, `{"unknown": {"$param": "X"}}`, map[string]string{"X": "1"})
	assert.ErrorContains(t, err, "field unknown not found")

	_, err = resolve(t, `{"Hidden": {"$param": "X"}}`, map[string]string{"X": "1"})
	assert.ErrorContains(t, err, "field Hidden not found", "json:\"-\" fields can't be set")

	_, err = resolve(t, `{"count": {"$param": 7}}`, nil)
	assert.ErrorContains(t, err, "param name must be a string")

	_, err = resolve(t, `{not json`, nil)
	assert.ErrorContains(t, err, "failed to parse JSON")
}
