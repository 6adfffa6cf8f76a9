package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/h2ofixture/config"
	"reduction.dev/h2ofixture/config/jsontemplate"
	"reduction.dev/h2ofixture/connectors"
	"reduction.dev/h2ofixture/connectors/httpapi"
	"reduction.dev/h2ofixture/connectors/stdio"
)

func TestUnmarshal(t *testing.T) {
	params := jsontemplate.NewParams()
	params.Set("SINK_ADDR", "http://localhost:9999")
	params.Set("DISTRIBUTED", "true")

	c, err := config.Unmarshal([]byte(`{
		"distributed": {"$param": "DISTRIBUTED"},
		"parallelism": 3,
		"limit": 20,
		"format": "csv",
		"sink": {"httpApi": {"addr": {"$param": "SINK_ADDR"}, "topic": "animals"}}
	}`), params)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.True(t, c.Distributed)
	assert.Equal(t, 3, c.Parallelism)
	assert.Equal(t, 20, c.Limit)
	assert.Equal(t, connectors.FormatCSV, c.RecordFormat())

	sink, err := c.Sink.Config()
	require.NoError(t, err)
	assert.Equal(t, &httpapi.SinkConfig{Addr: "http://localhost:9999", Topic: "animals"}, sink)
}

func TestUnmarshal_AppliesDefaults(t *testing.T) {
	c, err := config.Unmarshal([]byte(`{}`), nil)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, config.Default(), c)
	assert.False(t, c.Distributed)
	assert.Equal(t, 1, c.Parallelism)
	assert.Equal(t, connectors.FormatJSON, c.RecordFormat())
	assert.Equal(t, &stdio.SinkConfig{}, c.Sink.Stdio)
}

func TestUnmarshal_RejectsUnknownFields(t *testing.T) {
	_, err := config.Unmarshal([]byte(`{"paralelism": 2}`), nil)
	assert.ErrorContains(t, err, "invalid config document format")
}

func TestUnmarshal_ParamFromEnvironment(t *testing.T) {
	t.Setenv(jsontemplate.EnvPrefix+"LIMIT", "7")

	c, err := config.Unmarshal([]byte(`{"limit": {"$param": "LIMIT"}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Limit)
}

func TestValidate(t *testing.T) {
	c := config.Default()
	c.Parallelism = 0
	c.Limit = -1
	c.Format = "xml"

	err := c.Validate()
	assert.ErrorContains(t, err, "parallelism must be at least 1")
	assert.ErrorContains(t, err, "limit must not be negative")
	assert.ErrorContains(t, err, `unknown record format "xml"`)
}

func TestValidate_ExactlyOneSink(t *testing.T) {
	c := config.Default()
	c.Sink.HTTPAPI = &httpapi.SinkConfig{Addr: "http://localhost", Topic: "t"}
	assert.ErrorContains(t, c.Validate(), "need exactly 1 sink but had 2")

	c.Sink = config.Sink{}
	assert.ErrorContains(t, c.Validate(), "need exactly 1 sink but had 0")
}

func TestValidate_SinkErrors(t *testing.T) {
	c, err := config.Unmarshal([]byte(`{"sink": {"kafka": {"topic": "h2o"}}}`), nil)
	require.NoError(t, err)
	assert.ErrorContains(t, c.Validate(), "kafka sink requires at least one broker")
}

func TestSinkName(t *testing.T) {
	assert.Equal(t, "stdio", config.Default().Sink.Name())
	assert.Equal(t, "httpApi", config.Sink{HTTPAPI: &httpapi.SinkConfig{}}.Name())
	assert.Equal(t, "none", config.Sink{}.Name())
}
