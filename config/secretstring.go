package config

// SecretStringValue must be exported - used in tests.
const SecretStringValue = "<secret>"

// SecretString is a type that should be used for fields that should not be
// visible in logs, dumped configuration or debug reports. Use string(s) to
// get actual value.
type SecretString string

// String masks value when it ends up in formatted output or zap.Stringer.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
