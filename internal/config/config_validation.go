package config

import "errors"

// validate checks the merged configuration for the settings the server
// cannot run without. Defaults have already been applied, so only the
// genuinely required values are checked here.
func (c *StructuredConfig) validate() error {
	var errs []error

	if c.Server.HTTPAddress == "" {
		errs = append(errs, errNoServerAddress)
	}

	if c.Storage.DB.Engine != EnginePostgres && c.Storage.DB.Engine != EngineSQLite {
		errs = append(errs, errUnknownStorageEngine)
	}

	if c.Sync.Persistence() && c.Storage.DB.DSN == "" {
		errs = append(errs, errNoDatabaseDSN)
	}

	if c.App.TokenSignKey == "" {
		errs = append(errs, errNoTokenSignKey)
	}

	return errors.Join(errs...)
}
