// Package config loads typed configuration structs from environment variables.
//
// A .env file in the working directory is loaded once, if present, before the
// first parse. Struct fields are bound with caarlos0/env tags:
//
//	type MongoConfig struct {
//	    URL     string        `env:"MONGODB_URL,required"`
//	    Timeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg MongoConfig
//	config.MustLoad(&cfg)
package config
