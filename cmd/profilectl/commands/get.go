package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oksasatya/admin-user-profile/pkg/profileform"
)

func getCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [userId]",
		Short: "Show a user's profile and role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := profileform.New(opts.api, args[0], opts.logger)
			if err := form.Load(cmd.Context()); err != nil {
				return err
			}
			v := form.Values
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:          %s\n", v.FullName)
			fmt.Fprintf(out, "First Name:    %s\n", v.FirstName)
			fmt.Fprintf(out, "Last Name:     %s\n", v.LastName)
			fmt.Fprintf(out, "Email:         %s\n", v.Email)
			fmt.Fprintf(out, "Contact No:    %s\n", v.ContactNo)
			fmt.Fprintf(out, "User Role:     %s\n", v.UserRole)
			if v.ProfileImage != "" {
				fmt.Fprintf(out, "Profile Image: %s\n", opts.api.ImageURL(v.ProfileImage))
			}
			return nil
		},
	}
}

func rolesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the assignable roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := opts.api.Roles(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range roles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.RoleID, r.RoleName)
			}
			return nil
		},
	}
}
