// Package logger provides structured logging for walletkit using zerolog.
//
// Loggers are component-scoped and take structured fields as maps:
//
//	log := logger.Get("manager")
//	log.Info("wallet connected", logger.WalletFields("injected", addr))
//
// Output format (json or console), level and destination come from Config,
// usually loaded from the walletd config file or the LOG_* environment.
package logger
