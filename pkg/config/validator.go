package config

import "fmt"

// Validator runs cross-reference and field-level checks over a loaded
// Config (teacher's pkg/config/validator.go shape, scoped to this
// domain's much smaller configuration surface).
type Validator struct {
	cfg *Config
}

// NewValidator builds a Validator bound to cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every check, returning the first failure.
func (v *Validator) ValidateAll() error {
	if err := v.validateLLMProviders(); err != nil {
		return err
	}
	if err := v.validateMediaProviders(); err != nil {
		return err
	}
	if err := v.validateDefaults(); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if !p.Type.IsValid() {
			return NewValidationError("llm_provider", name, "type", fmt.Errorf("unsupported provider type %q", p.Type))
		}
		if p.Model == "" {
			return NewValidationError("llm_provider", name, "model", ErrMissingField)
		}
	}
	return nil
}

func (v *Validator) validateMediaProviders() error {
	for name, p := range v.cfg.MediaProviderRegistry.GetAll() {
		if !p.Kind.IsValid() {
			return NewValidationError("media_provider", name, "kind", fmt.Errorf("unsupported media kind %q", p.Kind))
		}
		if p.Provider == "" {
			return NewValidationError("media_provider", name, "provider", ErrMissingField)
		}
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d.LLMProvider == "" {
		return nil
	}
	if _, err := v.cfg.LLMProviderRegistry.Get(d.LLMProvider); err != nil {
		return NewValidationError("defaults", "llm_provider", "", err)
	}
	return nil
}
