// Package v1 holds the logging section of the project descriptor.
package v1

// Config sets the default level and per realm overrides.
type Config struct {
	// DefaultLevel is used when --loglevel is not given.
	DefaultLevel string `json:"defaultLevel,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	// Rules raise or lower the level of single realms.
	Rules []Rule `json:"rules,omitempty"`
}

type Rule struct {
	// Level is the minimum level logged for matching records.
	Level string `json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	// Conditions select the records the rule applies to.
	Conditions []Condition `json:"conditions"`
}

type Condition struct {
	// Realm is one of resolver, archive, launch.
	Realm string `json:"realm"`
}
