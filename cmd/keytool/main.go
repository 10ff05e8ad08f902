// keytool encrypts or decrypts a wallet private key with the
// configured master key. Used to seed the credential store and to
// verify stored secrets.
//
// Usage:
//
//	RELAY_MASTER_KEY=<hex> keytool encrypt <private-key-hex>
//	RELAY_MASTER_KEY=<hex> keytool decrypt <iv:tag:ciphertext>
package main

import (
	"fmt"
	"os"

	"github.com/tradevault/relay/params"
	"github.com/tradevault/relay/pkg/vault"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: keytool encrypt|decrypt <value>")
		os.Exit(2)
	}
	mode, value := os.Args[1], os.Args[2]

	cfg, err := params.LoadFromEnv("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	v, err := vault.New(cfg.MasterKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vault: %v\n", err)
		os.Exit(1)
	}

	switch mode {
	case "encrypt":
		secret, err := v.Encrypt(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encrypt: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(secret)
	case "decrypt":
		plaintext, err := v.Decrypt(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decrypt: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(plaintext)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(2)
	}
}
