package minioutil

import (
	"context"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/employees/require"
)

func TestConfigValidate(t *testing.T) {
	var c *Config
	assert.Error(t, c.Validate())

	c = &Config{Access: "a", Secret: "s"}
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, "missing s3 config: bucket, endpoint", err.Error())

	c.Bucket = "b"
	c.Endpoint = "localhost:9000"
	assert.NoError(t, c.Validate())
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), &Config{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "missing s3 config"))
}

func TestJoinPrefix(t *testing.T) {
	assert.Equal(t, "a.zst", JoinPrefix("", "a.zst"))
	assert.Equal(t, "backups/a.zst", JoinPrefix("backups", "a.zst"))
	assert.Equal(t, "backups/a.zst", JoinPrefix("backups/", "/a.zst"))
}
