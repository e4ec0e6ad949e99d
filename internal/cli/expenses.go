package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"spendtrack/internal/core"
)

func (a *App) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "List, add and delete expenses",
	}
	cmd.AddCommand(a.listExpensesCmd())
	cmd.AddCommand(a.addExpenseCmd())
	cmd.AddCommand(a.deleteExpenseCmd())
	return cmd
}

func (a *App) listExpensesCmd() *cobra.Command {
	var f core.FilterParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			items, err := client.ListExpenses(cmd.Context(), s, f)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Fprintln(a.out, "No expenses found.")
				if f.Active() {
					fmt.Fprintln(a.out, FormatHint("Try changing the filters or clear them."))
				} else {
					fmt.Fprintln(a.out, FormatHint("Use 'spendtrack expenses add' to create your first expense."))
				}
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				HeaderStyle.Render("ID"),
				HeaderStyle.Render("Date"),
				HeaderStyle.Render("Category"),
				HeaderStyle.Render("Amount"),
				HeaderStyle.Render("Description"))
			for _, e := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date.Display(), e.Category, e.Amount.Display(), e.DescriptionOrPlaceholder())
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&f.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&f.StartDate, "start-date", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.EndDate, "end-date", "", "last day, YYYY-MM-DD")
	return cmd
}

func (a *App) addExpenseCmd() *cobra.Command {
	var in core.ExpenseInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := in.Draft()
			if err != nil {
				return err
			}
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			e, err := client.CreateExpense(cmd.Context(), s, draft)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess(fmt.Sprintf("Expense added successfully (ID: %d, %s)", e.ID, e.Amount.Display())))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&in.Category, "category", "", "category name")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-text description")
	cmd.Flags().StringVar(&in.Date, "date", time.Now().Format(core.DateLayout), "date, YYYY-MM-DD")
	return cmd
}

func (a *App) deleteExpenseCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !a.confirm(fmt.Sprintf("Are you sure you want to delete expense %d?", id)) {
				fmt.Fprintln(a.out, FormatHint("Cancelled"))
				return nil
			}
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			if err := client.DeleteExpense(cmd.Context(), s, id); err != nil {
				return err
			}
			fmt.Fprintln(a.out, FormatSuccess("Expense deleted successfully"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *App) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the monthly expense total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, s, err := a.authedClient()
			if err != nil {
				return err
			}
			r, err := client.MonthlyReport(cmd.Context(), s)
			if err != nil {
				return err
			}
			title := "Monthly Report"
			if r.Month != "" {
				title += " (" + r.Month + ")"
			}
			fmt.Fprintln(a.out, RenderBox(title, "Total expenses this month: "+r.Total.Display()))
			return nil
		},
	}
}
