package config

const (
	EnvPrefix = "VYAPAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VYAPAR_DB_DSN"
	EnvDBHost = "VYAPAR_DB_HOST"
	EnvDBUser = "VYAPAR_DB_USER"
	EnvDBName = "VYAPAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
