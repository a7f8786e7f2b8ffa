package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "restock"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "RESTOCK_APP_ENV"
	EnvDBDSN  = "RESTOCK_DB_DSN"
	EnvDBHost = "RESTOCK_DB_HOST"
	EnvDBUser = "RESTOCK_DB_USER"
	EnvDBName = "RESTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
