package config

import "errors"

var (
	errNoServerAddress      = errors.New("no http server address provided")
	errNoDatabaseDSN        = errors.New("persistence is enabled but no database DSN provided")
	errUnknownStorageEngine = errors.New("unknown storage engine: want postgres or sqlite")
	errNoTokenSignKey       = errors.New("no token sign key provided")
)
