package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"animeHub/domain"
	"animeHub/errs"
)

var (
	// List flags
	listPage     int
	listPageSize int

	// Delete flags
	force bool

	// Password flags
	newPassword string

	// Add-admin flags
	adminEmail    string
	adminPassword string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

var infoCmd = &cobra.Command{
	Use:   "info ID",
	Short: "Show a user and everything that depends on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runInfo(id)
	},
}

var setAdminCmd = &cobra.Command{
	Use:   "set-admin ID",
	Short: "Grant admin rights to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runSetAdmin(id, true)
	},
}

var removeAdminCmd = &cobra.Command{
	Use:   "remove-admin ID",
	Short: "Revoke the admin rights of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runSetAdmin(id, false)
	},
}

var addAdminCmd = &cobra.Command{
	Use:   "add-admin USERNAME",
	Short: "Create a new admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddAdmin(args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a user together with everything it owns",
	Long: `Delete a user together with its posts, comments, likes, favorites and follows.

A user who authored posts or comments is only deleted with --force.

Examples:
  forumctl delete 42            # Refuses if user 42 authored content
  forumctl delete 42 --force    # Deletes user 42 and all its content`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runDelete(id)
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password ID",
	Short: "Set a new password for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return runResetPassword(id)
	},
}

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page to show")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 50, "Users per page")

	deleteCmd.Flags().BoolVarP(&force, "force", "f", false, "Delete the user's posts and comments as well")

	resetPasswordCmd.Flags().StringVar(&newPassword, "new-password", "", "The new password")
	resetPasswordCmd.MarkFlagRequired("new-password")

	addAdminCmd.Flags().StringVarP(&adminEmail, "email", "e", "", "Email of the admin")
	addAdminCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "Password of the admin")
	addAdminCmd.MarkFlagRequired("email")
	addAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(listCmd, infoCmd, setAdminCmd, removeAdminCmd, addAdminCmd, deleteCmd, resetPasswordCmd)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

// cliError turns application errors into their client message.
func cliError(err error) error {
	if err == nil || errs.ErrorCode(err) == errs.EINTERNAL {
		return err
	}
	return fmt.Errorf("%s", errs.ErrorMessage(err))
}

func runList() error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	page, err := e.services.Admin.Users(rootCmd.Context(), domain.PageRequest{Page: listPage, PageSize: listPageSize})
	if err != nil {
		return cliError(err)
	}
	if page.Total == 0 {
		fmt.Println("No users yet.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tADMIN\tACTIVE\tCREATED")
	for _, u := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\t%s\n",
			u.ID, u.Username, u.Email, u.IsAdmin, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Printf("\nPage %d, %d of %d users.\n", page.Page, len(page.Items), page.Total)
	return nil
}

func runInfo(id int) error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	user, err := e.services.User.ByID(rootCmd.Context(), id)
	if err != nil {
		return cliError(err)
	}
	inv, err := e.services.Admin.InspectUser(rootCmd.Context(), id)
	if err != nil {
		return cliError(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%d\n", user.ID)
	fmt.Fprintf(w, "Username\t%s\n", user.Username)
	fmt.Fprintf(w, "Email\t%s\n", user.Email)
	fmt.Fprintf(w, "Avatar\t%s\n", user.AvatarURL())
	fmt.Fprintf(w, "Signature\t%s\n", user.Signature)
	fmt.Fprintf(w, "Admin\t%t\n", user.IsAdmin)
	fmt.Fprintf(w, "Created\t%s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated\t%s\n", user.UpdatedAt.Format("2006-01-02 15:04:05"))
	w.Flush()
	fmt.Println()
	printInventory(inv)
	return nil
}

func printInventory(inv *domain.UserInventory) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Posts\t%d\n", inv.Posts)
	fmt.Fprintf(w, "Comments\t%d\n", inv.Comments)
	fmt.Fprintf(w, "Liked posts\t%d\n", inv.PostLikes)
	fmt.Fprintf(w, "Liked comments\t%d\n", inv.CommentLikes)
	fmt.Fprintf(w, "Favorites\t%d\n", inv.Favorites)
	fmt.Fprintf(w, "Followers\t%d\n", inv.Followers)
	fmt.Fprintf(w, "Following\t%d\n", inv.Following)
	w.Flush()
}

func runSetAdmin(id int, admin bool) error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	user, err := e.services.Admin.SetAdmin(rootCmd.Context(), id, admin)
	if err != nil {
		return cliError(err)
	}
	if admin {
		fmt.Printf("User '%s' (ID=%d) is an admin now.\n", user.Username, user.ID)
	} else {
		fmt.Printf("User '%s' (ID=%d) is no admin anymore.\n", user.Username, user.ID)
	}
	return nil
}

func runAddAdmin(username string) error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	user := &domain.User{Username: username, Email: adminEmail, Password: adminPassword}
	if err := e.services.Admin.CreateAdmin(rootCmd.Context(), user); err != nil {
		return cliError(err)
	}
	fmt.Printf("Admin '%s' (ID=%d) created.\n", user.Username, user.ID)
	return nil
}

func runDelete(id int) error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	deletion, err := e.services.Admin.DeleteUser(rootCmd.Context(), id, operator, force)
	if err != nil {
		if deletion != nil {
			fmt.Printf("User '%s' (ID=%d) owns:\n", deletion.Inventory.Username, id)
			printInventory(&deletion.Inventory)
			fmt.Println("\nUse --force to delete the user with all of it.")
		}
		return cliError(err)
	}
	fmt.Printf("User '%s' (ID=%d) deleted.\n", deletion.Inventory.Username, id)
	if deletion.Report != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, s := range deletion.Report.Steps {
			fmt.Fprintf(w, "  %s\t%d\n", s.Name, s.Rows)
		}
		w.Flush()
	}
	return nil
}

func runResetPassword(id int) error {
	e, err := connect()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.services.Admin.ResetPassword(rootCmd.Context(), id, newPassword); err != nil {
		return cliError(err)
	}
	fmt.Printf("Password of user %d reset.\n", id)
	return nil
}
