package main

import (
	"fmt"

	"github.com/Dias221467/Employee_Manager/pkg/jwt"
	"github.com/spf13/cobra"
)

func newTokenCmd(load configLoader) *cobra.Command {
	var (
		userID int64
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user id (development use)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			token, err := jwt.GenerateToken(userID, role, cfg.JWTSecret, cfg.TokenExpiry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id to embed in the token")
	cmd.Flags().StringVar(&role, "role", "employee", "role claim")
	return cmd
}
