package main

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/middleware"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an HS256 admin token (JWT_SECRET must match the server)",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := v.GetString("jwt_secret")
		if secret == "" {
			return errors.New("jwt secret is required (--jwt-secret or CATALOG_JWT_SECRET)")
		}
		userID, _ := cmd.Flags().GetInt64("user-id")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok, err := middleware.SignToken(secret, userID, middleware.RoleAdmin, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.String("jwt-secret", "", "JWT secret")
	f.Int64("user-id", 1, "admin user id (sub)")
	f.Duration("ttl", time.Hour, "token lifetime")
	_ = v.BindPFlag("jwt_secret", f.Lookup("jwt-secret"))
}
