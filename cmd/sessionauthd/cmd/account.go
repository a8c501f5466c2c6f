package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/account"
)

var (
	accountUsername string
	accountName     string
	accountLanguage string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account; the password is read from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		name := accountName
		if name == "" {
			name = accountUsername
		}
		acc, err := rt.engine.CreateAccount(cmd.Context(), sessionauth.CreateAccountRequest{
			Username:          accountUsername,
			Password:          password,
			Name:              name,
			PreferredLanguage: account.Language(accountLanguage),
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created account %s (%s)\n", acc.Username, acc.ID)
		return nil
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password must be given on stdin")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}

func init() {
	accountCreateCmd.Flags().StringVar(&accountUsername, "username", "", "Login name (at most 20 characters)")
	accountCreateCmd.Flags().StringVar(&accountName, "name", "", "Display name; defaults to the username")
	accountCreateCmd.Flags().StringVar(&accountLanguage, "language", "en", "Preferred language (en or de)")
	_ = accountCreateCmd.MarkFlagRequired("username")

	accountCmd.AddCommand(accountCreateCmd)
	rootCmd.AddCommand(accountCmd)
}
