// Package version reports walletd build information.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/walletkit/version.Version=0.3.0" ./cmd/walletd
//
// Values left empty are filled from the module's embedded VCS settings.
package version
