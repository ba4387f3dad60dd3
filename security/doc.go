// Package security builds TLS client settings for wallet providers reached
// over https, such as a remote signer or a provider bridge behind a private
// CA.
package security
