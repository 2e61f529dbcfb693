package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/liveness"
	"github.com/heirloom-app/heirloom/vault"
)

var serverURL string

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Perform a liveness check-in against the heartbeat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		session, err := vault.Open(repo)
		if err != nil {
			return err
		}
		defer session.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		if err := session.Unlock(passphrase); err != nil {
			return err
		}

		client := liveness.NewClient(serverURL, session)
		if err := client.CheckIn(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Check-in accepted.")
		return nil
	},
}

func init() {
	checkinCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "heartbeat server base URL")
	rootCmd.AddCommand(checkinCmd)
}
