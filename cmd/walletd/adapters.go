package main

import (
	"github.com/kbukum/walletkit/adapter"
	"github.com/kbukum/walletkit/adapter/eip1193"
	"github.com/kbukum/walletkit/adapter/mock"
	"github.com/kbukum/walletkit/config"
	"github.com/kbukum/walletkit/wallet"
)

// buildAdapters registers one adapter per configured kind.
func buildAdapters(cfgs []config.AdapterConfig) (*adapter.Registry, error) {
	reg := adapter.NewRegistry()
	reg.RegisterFactory(config.AdapterEIP1193, eip1193.Factory)
	reg.RegisterFactory(config.AdapterMock, mock.Factory)

	for _, ac := range cfgs {
		if _, err := reg.Build(ac.Type, wallet.Kind(ac.Kind), ac.Settings()); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
