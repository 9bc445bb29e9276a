package config

const (
	DefaultConfigPath     = "config.yml"
	DefaultNodeConfigPath = "config.ini"
	DefaultDataDir        = "./data"

	DefaultProgressInterval int32 = 1 << 16
)
