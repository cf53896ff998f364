package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/futures"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

func newFutureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "future",
		Short: "Manage future payables and receivables",
	}
	cmd.AddCommand(
		newFutureAddCommand(),
		newFutureListCommand(),
		newFutureUpdateCommand(),
		newFutureDeleteCommand(),
		newFutureStatusCommand("settle", "Mark an entry as paid or received", (*futures.Service).Settle),
		newFutureStatusCommand("cancel", "Mark an entry as cancelled", (*futures.Service).Cancel),
	)
	return cmd
}

func (p *project) futures(ctx context.Context) (*futures.Service, error) {
	h, err := p.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return futures.NewService(p.store, futures.Config{
		CompanyID: p.companyID(),
		Hierarchy: h,
		Notifier:  p.notifier,
		Audit:     p.audit,
	}, p.logger), nil
}

// entryFlags are the editable fields shared by add and update.
type entryFlags struct {
	due         string
	amount      string
	typ         string
	description string
	commitment  string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 1250.00")
	cmd.Flags().StringVar(&f.typ, "type", "", "payable or receivable")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.commitment, "commitment", "", "commitment id")
}

// apply overwrites p with every flag the user set.
func (f *entryFlags) apply(cmd *cobra.Command, p *futures.Params) error {
	if cmd.Flags().Changed("due") {
		t, err := parseDate(f.due)
		if err != nil {
			return err
		}
		p.DueDate = t
	}
	if cmd.Flags().Changed("amount") {
		d, err := decimal.NewFromString(strings.TrimSpace(f.amount))
		if err != nil {
			return fmt.Errorf("invalid amount %q", f.amount)
		}
		p.Amount = d
	}
	if cmd.Flags().Changed("type") {
		p.Type = model.EntryType(strings.ToLower(strings.TrimSpace(f.typ)))
	}
	if cmd.Flags().Changed("description") {
		p.Description = f.description
	}
	if cmd.Flags().Changed("commitment") {
		p.Classification = model.Classification{CommitmentID: f.commitment}
	}
	return nil
}

func newFutureAddCommand() *cobra.Command {
	var flags entryFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a future entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var params futures.Params
			if err := flags.apply(cmd, &params); err != nil {
				return err
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.futures(cmd.Context())
			if err != nil {
				return err
			}
			e, err := svc.Create(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s %s %s due %s (%s)\n", e.Type, e.Amount.StringFixed(2), e.Description, store.FormatDate(e.DueDate), e.ID)
			return nil
		},
	}
	flags.register(cmd)
	for _, name := range []string{"due", "amount", "type", "description"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newFutureUpdateCommand() *cobra.Command {
	var flags entryFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a pending future entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.futures(cmd.Context())
			if err != nil {
				return err
			}
			cur, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			params := futures.Params{
				DueDate:        cur.DueDate,
				Amount:         cur.Amount,
				Type:           cur.Type,
				Description:    cur.Description,
				Classification: cur.Classification,
			}
			if err := flags.apply(cmd, &params); err != nil {
				return err
			}
			e, err := svc.Update(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", e.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newFutureDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a future entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.futures(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func newFutureStatusCommand(use, short string, change func(*futures.Service, context.Context, string) (model.FutureEntry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.futures(cmd.Context())
			if err != nil {
				return err
			}
			e, err := change(svc, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", e.ID, e.Status)
			return nil
		},
	}
}

func newFutureListCommand() *cobra.Command {
	var (
		months   []string
		statuses []string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List future entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter futures.ListFilter
			if len(months) > 0 {
				ms, err := monthsFlag(months)
				if err != nil {
					return err
				}
				filter.From = ms[0].First()
				filter.To = ms[len(ms)-1].Next().First()
			}
			for _, s := range statuses {
				filter.Statuses = append(filter.Statuses, model.EntryStatus(strings.ToLower(s)))
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			svc, err := p.futures(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printFutures(entries)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&months, "month", nil, "restrict to months YYYY-MM (repeatable)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "pending, settled or cancelled (repeatable)")
	return cmd
}

func printFutures(entries []model.FutureEntry) {
	if len(entries) == 0 {
		fmt.Println("No future entries.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tTYPE\tAMOUNT\tSTATUS\tSOURCE\tDESCRIPTION\tCOMMITMENT\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			store.FormatDate(e.DueDate), e.Type, e.Amount.StringFixed(2), e.Status, e.Source,
			e.Description, e.Classification.CommitmentName, e.ID)
	}
	w.Flush()
}

// parseDate reads a YYYY-MM-DD flag value.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(store.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
