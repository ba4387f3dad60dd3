// Package validation provides input validation for walletkit.
//
// Struct tags are checked with go-playground/validator; wallet addresses
// use the built-in eth_addr tag and provider kinds the wallet_kind tag
// registered here.
//
//	type switchRequest struct {
//	    Address string `json:"address" validate:"required,eth_addr"`
//	}
//	err := validation.Validate(req)
//
// Programmatic checks collect field errors:
//
//	v := validation.New()
//	v.Address("address", raw)
//	err := v.Validate()
package validation
