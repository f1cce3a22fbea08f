package mapper

// Config holds the global mapping defaults. Per-type and per-pair options override them.
type Config struct {
	// IdentityField is the default name of the identity property.
	IdentityField string `mapstructure:"identity_field" default:"ID"`
	// ConcurrencyTokenField is the default name of the concurrency token property.
	ConcurrencyTokenField string `mapstructure:"concurrency_token_field" default:"ConcurrencyToken"`
	// DeleteOnRemoved deletes detached entities from the store instead of only unlinking them.
	DeleteOnRemoved bool `mapstructure:"delete_on_removed" default:"false"`
	// KeepUnmatched keeps target collection elements that have no source counterpart.
	KeepUnmatched bool `mapstructure:"keep_unmatched" default:"false"`
}

// DefaultConfig returns the configuration used when none is loaded.
func DefaultConfig() Config {
	return Config{
		IdentityField:         "ID",
		ConcurrencyTokenField: "ConcurrencyToken",
	}
}

func (c Config) withDefaults() Config {
	if c.IdentityField == "" {
		c.IdentityField = "ID"
	}
	if c.ConcurrencyTokenField == "" {
		c.ConcurrencyTokenField = "ConcurrencyToken"
	}
	return c
}
