package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/storage/bolt"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "heirloom",
	Short: "Heirloom is a personal encrypted memory vault",
	Long: `Heirloom keeps a personal journal vault encrypted under a passphrase-derived
key hierarchy, checks in with a liveness server, and lets a quorum of heirs
recover the vault after prolonged inactivity.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "directory for vault data")
}

func openRepository() (*bolt.Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return bolt.NewRepositoryFromFile(dataDir+"/heirloom.db", nil)
}

// readPassphrase reads one line from stdin, prompting on stderr so the
// prompt never mixes with piped output.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
