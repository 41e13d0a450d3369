package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in and out",
	}
	rootCmd.AddCommand(authCmd)

	// signup
	var sName, sEmail, sPassword string
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sess.Signup(cmd.Context(), sName, sEmail, sPassword)
			if err != nil {
				return err
			}
			fmt.Printf("welcome, %s (%s)\n", id.Name, id.Email)
			return nil
		},
	}
	signupCmd.Flags().StringVar(&sName, "name", "", "full name")
	signupCmd.Flags().StringVar(&sEmail, "email", "", "email")
	signupCmd.Flags().StringVar(&sPassword, "password", "", "password (at least 6 characters)")
	authCmd.AddCommand(signupCmd)

	// login
	var lEmail, lPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sess.Login(cmd.Context(), lEmail, lPassword)
			if err != nil {
				return err
			}
			fmt.Printf("signed in as %s (%s)\n", id.Name, id.Email)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&lEmail, "email", "", "email")
	loginCmd.Flags().StringVar(&lPassword, "password", "", "password")
	authCmd.AddCommand(loginCmd)

	// logout
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess.Logout(cmd.Context())
			fmt.Println("signed out")
			return nil
		},
	}
	authCmd.AddCommand(logoutCmd)

	// whoami
	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in shopper",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sess.Identity(cmd.Context())
			if id == nil {
				fmt.Println("guest")
				return nil
			}
			return printJSON(id)
		},
	}
	authCmd.AddCommand(whoamiCmd)
}
