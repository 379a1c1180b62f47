package config

const (
	EnvPrefix = "SALESCOPE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SALESCOPE_DB_DSN"
	EnvDBHost = "SALESCOPE_DB_HOST"
	EnvDBUser = "SALESCOPE_DB_USER"
	EnvDBName = "SALESCOPE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
