package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/vault"
)

var kdfProfile string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize a new vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		params, err := crypto.Argon2idProfile(kdfProfile)
		if err != nil {
			return err
		}

		passphrase, err := readPassphrase("Choose a passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		session, err := vault.Setup(repo, passphrase, vault.WithKDFParams(params))
		if err != nil {
			return err
		}
		defer session.Close()

		fmt.Println("Vault initialized.")
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&kdfProfile, "kdf-profile", crypto.KDFProfileModerate,
		"KDF profile: interactive, moderate, or sensitive")
	rootCmd.AddCommand(setupCmd)
}
