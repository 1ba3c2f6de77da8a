package config

// builtinConfig holds the configuration shipped with the binary, merged
// under whatever the operator's storyforge.yaml provides (teacher's
// built-in + user-override merge style, pkg/config/builtin.go).
type builtinConfig struct {
	LLMProviders        map[string]LLMProviderConfig
	MediaProviders      map[string]MediaProviderConfig
	DefaultLLMProvider  string
}

// getBuiltinConfig returns the compiled-in defaults. There are no
// built-in provider credentials to ship — every provider in the pack
// needs an operator-supplied API key — so these maps start empty and
// exist purely as the merge base the loader layers storyforge.yaml on
// top of.
func getBuiltinConfig() *builtinConfig {
	return &builtinConfig{
		LLMProviders:       map[string]LLMProviderConfig{},
		MediaProviders:     map[string]MediaProviderConfig{},
		DefaultLLMProvider: "",
	}
}
