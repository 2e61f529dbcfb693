package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/testament"
)

var (
	heirName  string
	heirEmail string
	heirRole  string
)

var heirsCmd = &cobra.Command{
	Use:   "heirs",
	Short: "Manage the heir registry",
}

var heirsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new heir",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := testament.NewService(repo)
		h, err := svc.AddHeir(heirName, heirEmail, testament.Role(heirRole))
		if err != nil {
			return err
		}
		fmt.Printf("Added %s %q (%s)\n", h.Role, h.Name, h.ID)
		return nil
	},
}

var heirsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered heirs",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := testament.NewService(repo)
		heirs, err := svc.ListHeirs()
		if err != nil {
			return err
		}
		for _, h := range heirs {
			assigned := "-"
			if h.ShareIndex > 0 {
				assigned = fmt.Sprintf("share %d", h.ShareIndex)
			}
			fmt.Printf("%s  %-20s %-30s %-8s %s\n", h.ID, h.Name, h.Email, h.Role, assigned)
		}
		return nil
	},
}

func init() {
	heirsAddCmd.Flags().StringVar(&heirName, "name", "", "heir name")
	heirsAddCmd.Flags().StringVar(&heirEmail, "email", "", "heir email")
	heirsAddCmd.Flags().StringVar(&heirRole, "role", string(testament.RoleHeir), "role: heir or executor")
	heirsAddCmd.MarkFlagRequired("name")
	heirsCmd.AddCommand(heirsAddCmd)
	heirsCmd.AddCommand(heirsListCmd)
	rootCmd.AddCommand(heirsCmd)
}
