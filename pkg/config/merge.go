package config

// mergeLLMProviders merges built-in and user-defined LLM provider
// configurations. User-defined providers override built-ins with the
// same name.
func mergeLLMProviders(builtin, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	result := make(map[string]*LLMProviderConfig, len(builtin)+len(user))
	for name, p := range builtin {
		pc := p
		result[name] = &pc
	}
	for name, p := range user {
		pc := p
		result[name] = &pc
	}
	return result
}

// mergeMediaProviders merges built-in and user-defined media provider
// configurations. User-defined providers override built-ins with the
// same name.
func mergeMediaProviders(builtin, user map[string]MediaProviderConfig) map[string]*MediaProviderConfig {
	result := make(map[string]*MediaProviderConfig, len(builtin)+len(user))
	for name, p := range builtin {
		pc := p
		result[name] = &pc
	}
	for name, p := range user {
		pc := p
		result[name] = &pc
	}
	return result
}
