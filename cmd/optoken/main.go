// Command optoken prepares operator credentials for the inventory server:
//
//	optoken hash --password s3cret        prints a value for OPERATOR_PASSWORD_HASH
//	optoken mint --ttl 30                 prints a signed operator token (needs JWT_SECRET)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/showtime-inventory-bench/internal/utils"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the bcrypt hash of an operator password",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		cost, _ := cmd.Flags().GetInt("cost")
		if password == "" {
			return errors.New("--password is required")
		}
		hash, err := utils.HashPassword(password, cost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an operator access token",
	Long:  `Mint signs an operator token with --secret, or JWT_SECRET from the environment or .env.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		ttl, _ := cmd.Flags().GetInt("ttl")
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		tok, err := utils.NewAccessToken(secret, "operator", utils.RoleOperator, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

var rootCmd = &cobra.Command{
	Use:           "optoken",
	Short:         "Operator credential helper for the inventory server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	hashCmd.Flags().String("password", "", "operator password to hash")
	hashCmd.Flags().Int("cost", utils.DefaultBcryptCost, "bcrypt cost")
	mintCmd.Flags().String("secret", "", "JWT signing secret (default $JWT_SECRET)")
	mintCmd.Flags().Int("ttl", 60, "token lifetime in minutes")
	rootCmd.AddCommand(hashCmd, mintCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "optoken:", err)
		os.Exit(1)
	}
}
