package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Chain    ChainConfig
	Policy   PolicyConfig
	Sweeper  SweeperConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// AdminConfig holds the bootstrap operator account
type AdminConfig struct {
	Email    string
	Password string
}

// ChainConfig holds the on-chain adapter configuration. With Mock enabled
// the service runs against in-memory ledger and registry implementations
// instead of an RPC endpoint.
type ChainConfig struct {
	RPCURL       string
	PrivateKey   string
	TokenAddress string
	ChainID      int64
	Mock         bool
}

// PolicyConfig seeds the factory policy on first start. Later changes go
// through the policy update endpoint, never through configuration reloads.
type PolicyConfig struct {
	Token        string
	FeeRecipient string
	MinDuration  int64
	EntryFee     int64
	TicketPrice  int64
}

// SweeperConfig holds the draw sweeper configuration
type SweeperConfig struct {
	Enabled         bool
	IntervalSeconds int
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "raffle-fun")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Admin.Email", "admin@raffle.fun")
	viper.SetDefault("Chain.Mock", true)
	viper.SetDefault("Chain.ChainID", 1)
	viper.SetDefault("Policy.Token", "0x0000000000000000000000000000000000000001")
	viper.SetDefault("Policy.FeeRecipient", "0x0000000000000000000000000000000000000002")
	viper.SetDefault("Policy.MinDuration", 3600) // one hour, matches contract deployment default
	viper.SetDefault("Policy.EntryFee", 1000000) // one whole token at 6 decimals
	viper.SetDefault("Policy.TicketPrice", 10)
	viper.SetDefault("Sweeper.Enabled", true)
	viper.SetDefault("Sweeper.IntervalSeconds", 60)
	viper.SetDefault("LogLevel", "info")
}
