package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// prefixed names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SUQPOS_DB_DSN"
	EnvDBHost = "SUQPOS_DB_HOST"
	EnvDBUser = "SUQPOS_DB_USER"
	EnvDBName = "SUQPOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
