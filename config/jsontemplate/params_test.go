package jsontemplate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"reduction.dev/h2ofixture/config/jsontemplate"
)

func TestParamsSetGet(t *testing.T) {
	params := jsontemplate.NewParams()

	params.Set("key1", "value1")
	value, exists := params.Get("key1")
	assert.True(t, exists, "Get should return true for existing key")
	assert.Equal(t, "value1", value)

	value, exists = params.Get("nonexistent")
	assert.False(t, exists, "Get should return false for non-existent key")
	assert.Equal(t, "", value)

	params.Set("key1", "newvalue")
	value, _ = params.Get("key1")
	assert.Equal(t, "newvalue", value, "Set overwrites")
}

func TestParamsEnvironmentFallback(t *testing.T) {
	params := jsontemplate.NewParams()
	t.Setenv(jsontemplate.EnvPrefix+"testkey", "testvalue")

	value, exists := params.Get("testkey")
	assert.True(t, exists, "Get should return true for key with env var")
	assert.Equal(t, "testvalue", value)

	params.Set("testkey", "mapvalue")
	value, _ = params.Get("testkey")
	assert.Equal(t, "mapvalue", value, "Value from params map should take precedence over env var")
}

func TestNilParamsUseEnvironment(t *testing.T) {
	t.Setenv(jsontemplate.EnvPrefix+"fromenv", "yes")

	var params *jsontemplate.Params
	value, exists := params.Get("fromenv")
	assert.True(t, exists)
	assert.Equal(t, "yes", value)
}
