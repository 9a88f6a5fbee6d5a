package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oksasatya/admin-user-profile/pkg/profileform"
)

// flag name -> form field
var updateFields = []struct{ flag, field, usage string }{
	{"first-name", "firstName", "first name"},
	{"last-name", "lastName", "last name"},
	{"email", "email", "email address"},
	{"contact-no", "contactNo", "contact number (empty clears it)"},
	{"role", "userRole", "role name"},
	{"password", "password", "new password"},
	{"confirm-password", "confirmPassword", "new password again (defaults to --password)"},
}

func updateCmd(opts *rootOptions) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "update [userId]",
		Short: "Edit a user's profile; unset flags keep the current values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			form := profileform.New(opts.api, args[0], opts.logger)
			if err := form.Load(ctx); err != nil {
				return err
			}
			form.Edit()

			changed := false
			for _, f := range updateFields {
				if !cmd.Flags().Changed(f.flag) {
					continue
				}
				v, _ := cmd.Flags().GetString(f.flag)
				if err := form.Set(f.field, v); err != nil {
					return err
				}
				changed = true
			}
			if cmd.Flags().Changed("password") && !cmd.Flags().Changed("confirm-password") {
				_ = form.Set("confirmPassword", form.Values.Password)
			}

			if image != "" {
				fh, err := os.Open(image)
				if err != nil {
					return err
				}
				defer func() { _ = fh.Close() }()
				form.SetImage(filepath.Base(image), fh)
				changed = true
			}
			if !changed {
				return errors.New("nothing to update; pass at least one field flag or --image")
			}

			if err := form.Save(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), form.Notice)
			return nil
		},
	}
	for _, f := range updateFields {
		cmd.Flags().String(f.flag, "", f.usage)
	}
	cmd.Flags().StringVar(&image, "image", "", "path of a new profile image")
	return cmd
}
