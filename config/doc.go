// Package config loads walletd configuration.
//
// Values come from a YAML file, then a .env file, then the process
// environment. Environment variables use the WALLETD_ prefix with
// underscore-separated paths, e.g. WALLETD_STORE_DRIVER=sqlite or
// WALLETD_SERVER_PORT=9000.
//
// # Usage
//
//	var cfg config.WalletdConfig
//	if err := config.LoadConfig("walletd", &cfg, config.WithConfigFile(path)); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config
