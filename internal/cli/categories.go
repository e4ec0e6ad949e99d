package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spendtrack/internal/core"
)

func (a *App) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "List, add, rename and delete categories",
	}
	cmd.AddCommand(a.listCategoriesCmd())
	cmd.AddCommand(a.addCategoryCmd())
	cmd.AddCommand(a.renameCategoryCmd())
	cmd.AddCommand(a.deleteCategoryCmd())
	return cmd
}

func (a *App) listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			items, err := client.ListCategories(cmd.Context(), s)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(a.out, "No categories found.")
				fmt.Fprintln(a.out, FormatHint("Use 'spendtrack categories add' to create your first category."))
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", HeaderStyle.Render("ID"), HeaderStyle.Render("Name"))
			for _, c := range items {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}
}

func (a *App) addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := core.CategoryInput{Name: strings.Join(args, " ")}
			if err := in.Validate(); err != nil {
				return err
			}
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			c, err := client.CreateCategory(cmd.Context(), s, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess(fmt.Sprintf("Category created successfully (ID: %d)", c.ID)))
			return nil
		},
	}
}

func (a *App) renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := core.CategoryInput{Name: strings.Join(args[1:], " ")}
			if err := in.Validate(); err != nil {
				return err
			}
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			if _, err := client.UpdateCategory(cmd.Context(), s, id, in); err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess("Category updated successfully"))
			return nil
		},
	}
}

func (a *App) deleteCategoryCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !a.confirm(fmt.Sprintf("Are you sure you want to delete category %d?", id)) {
				fmt.Fprintln(a.out, FormatHint("Cancelled"))
				return nil
			}
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			if err := client.DeleteCategory(cmd.Context(), s, id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess("Category deleted successfully"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
