package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/internal/util"
	"github.com/heirloom-app/heirloom/testament"
	"github.com/heirloom-app/heirloom/vault"
)

var (
	shareThreshold int
	shareTotal     int
)

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Generate or recover testament shares",
}

var sharesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Split the vault secret into heir shares",
	Long: `Splits the vault's root secret into shares for distribution to heirs.
The shares are printed exactly once and never stored; copy each one to its
heir before closing this terminal.`,
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

		svc := testament.NewService(repo)
		shares, err := svc.GenerateShares(session, shareThreshold, shareTotal)
		if err != nil {
			return err
		}

		fmt.Printf("Generated %d shares, any %d of which recover the vault.\n", shareTotal, shareThreshold)
		fmt.Println("These are shown ONCE. Distribute them now.")
		for i, share := range shares {
			if share.HeirID != "" {
				heir, err := svc.GetHeir(share.HeirID)
				if err == nil {
					fmt.Printf("\n[%d] for %s <%s>:\n%s\n", i+1, heir.Name, heir.Email, share.Share)
					continue
				}
			}
			fmt.Printf("\n[%d] unassigned:\n%s\n", i+1, share.Share)
		}
		return nil
	},
}

var sharesRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reconstruct the vault secret from heir shares",
	Long: `Reads one share per line from stdin (blank line to finish), reconstructs
the vault's root secret, and verifies it against the vault configuration.
Run by heirs during a recovery event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		cfg, err := vault.LoadConfig(repo)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "Paste shares, one per line, blank line to finish:")
		scanner := bufio.NewScanner(os.Stdin)
		var formatted []string
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				break
			}
			formatted = append(formatted, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading shares: %w", err)
		}

		secret, err := testament.RecoverFromShares(formatted, cfg)
		if err != nil {
			return err
		}
		defer util.WipeBytes(secret)

		fmt.Println("Recovery verified. Master key material:")
		fmt.Println(util.HexEncode(secret))
		return nil
	},
}

func init() {
	sharesGenerateCmd.Flags().IntVar(&shareThreshold, "threshold", 3, "shares required to recover")
	sharesGenerateCmd.Flags().IntVar(&shareTotal, "total", 5, "total shares to generate")
	sharesCmd.AddCommand(sharesGenerateCmd)
	sharesCmd.AddCommand(sharesRecoverCmd)
	rootCmd.AddCommand(sharesCmd)
}
