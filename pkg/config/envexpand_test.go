package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvSubstitutesShellStyleVars(t *testing.T) {
	os.Setenv("STORYFORGE_TEST_KEY", "secret123")
	defer os.Unsetenv("STORYFORGE_TEST_KEY")

	got := ExpandEnv([]byte("api_key: ${STORYFORGE_TEST_KEY}"))
	assert.Equal(t, "api_key: secret123", string(got))
}

func TestExpandEnvMissingVarExpandsEmpty(t *testing.T) {
	os.Unsetenv("STORYFORGE_MISSING_VAR")
	got := ExpandEnv([]byte("endpoint: ${STORYFORGE_MISSING_VAR}"))
	assert.Equal(t, "endpoint: ", string(got))
}

func TestExpandEnvLeavesPlainTextAlone(t *testing.T) {
	got := ExpandEnv([]byte("regex: ^secret.*$"))
	assert.Equal(t, "regex: ^secret.*$", string(got))
}
