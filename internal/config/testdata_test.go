package config_test

import (
	"os"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// limitsFixture mirrors the user/discussionThread/discussionTag/
// discussionCategory groups the two bundled testdata fixtures carry, so a
// decode failure or a drifted field name shows up as a normal test failure
// rather than a silent viper miss.
type limitsFixture struct {
	User struct {
		MinNameLength              int   `toml:"minNameLength" yaml:"minNameLength"`
		MaxNameLength              int   `toml:"maxNameLength" yaml:"maxNameLength"`
		MaxUsersPerPage            int   `toml:"maxUsersPerPage" yaml:"maxUsersPerPage"`
		VisitorOnlineForSeconds    int64 `toml:"visitorOnlineForSeconds" yaml:"visitorOnlineForSeconds"`
		OnlineUsersIntervalSeconds int64 `toml:"onlineUsersIntervalSeconds" yaml:"onlineUsersIntervalSeconds"`
	} `toml:"user" yaml:"user"`
	DiscussionThread struct {
		MinNameLength  int `toml:"minNameLength" yaml:"minNameLength"`
		MaxNameLength  int `toml:"maxNameLength" yaml:"maxNameLength"`
		ThreadsPerPage int `toml:"threadsPerPage" yaml:"threadsPerPage"`
	} `toml:"discussionThread" yaml:"discussionThread"`
}

func TestTOMLFixtureDecodesDefaultLimits(t *testing.T) {
	var f limitsFixture
	_, err := toml.DecodeFile("testdata/default_limits.toml", &f)
	require.NoError(t, err)

	assert.Equal(t, 3, f.User.MinNameLength)
	assert.Equal(t, 64, f.User.MaxNameLength)
	assert.Equal(t, 25, f.User.MaxUsersPerPage)
	assert.Equal(t, int64(300), f.User.VisitorOnlineForSeconds)
	assert.Equal(t, int64(60), f.User.OnlineUsersIntervalSeconds)
	assert.Equal(t, 25, f.DiscussionThread.ThreadsPerPage)
}

func TestYAMLFixtureDecodesDefaultLimits(t *testing.T) {
	raw, err := os.ReadFile("testdata/default_limits.yaml")
	require.NoError(t, err)

	var f limitsFixture
	require.NoError(t, yaml.Unmarshal(raw, &f))

	assert.Equal(t, 3, f.User.MinNameLength)
	assert.Equal(t, 64, f.User.MaxNameLength)
	assert.Equal(t, 25, f.User.MaxUsersPerPage)
	assert.Equal(t, int64(300), f.User.VisitorOnlineForSeconds)
	assert.Equal(t, int64(60), f.User.OnlineUsersIntervalSeconds)
	assert.Equal(t, 25, f.DiscussionThread.ThreadsPerPage)
}

func TestTOMLAndYAMLFixturesAgree(t *testing.T) {
	var tf, yf limitsFixture
	_, err := toml.DecodeFile("testdata/default_limits.toml", &tf)
	require.NoError(t, err)
	raw, err := os.ReadFile("testdata/default_limits.yaml")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(raw, &yf))

	assert.Equal(t, tf, yf)
}
