package model

// Account holds the configuration for one StudyHub server the client can
// sign in to. The access token is kept in the system keyring, keyed by
// CredentialKey, and never stored alongside the rest of the account.
type Account struct {
	// ID is the unique identifier for this account.
	ID string `mapstructure:"id" yaml:"id"`

	// Name is the user-defined label for this account.
	Name string `mapstructure:"name" yaml:"name"`

	// BaseURL is the root URL of the StudyHub server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether this account can be selected at startup.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec overrides display.poll_interval_sec for this account
	// when positive.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Config holds free-form per-account settings.
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// CredentialKey returns the keyring entry holding the account's token.
func (a Account) CredentialKey() string {
	return "account-" + a.ID
}
