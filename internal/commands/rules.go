package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/auditlog"
	"github.com/fluxo-dev/fluxo/internal/classify"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/refresh"
	"github.com/fluxo-dev/fluxo/internal/store"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
	}
	cmd.AddCommand(newRulesListCommand(), newRulesAddCommand(), newRulesApplyCommand())
	return cmd
}

func newRulesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := repoFlag(cmd)
			if err != nil {
				return err
			}
			rules, err := classify.LoadRules(root)
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Println("No rules.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tCONTAINS\tTYPE\tGROUP\tCOMMITMENT")
			for i, r := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, r.Contains, r.TypeID, r.GroupID, r.CommitmentID)
			}
			return w.Flush()
		},
	}
}

func newRulesAddCommand() *cobra.Command {
	var (
		rule  classify.Rule
		first bool
	)
	cmd := &cobra.Command{
		Use:   "add <contains>",
		Short: "Add a rule matching descriptions that contain the given text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Contains = strings.TrimSpace(args[0])
			if rule.Contains == "" {
				return fmt.Errorf("rule text cannot be empty")
			}
			if rule.TypeID == "" && rule.GroupID == "" && rule.CommitmentID == "" {
				return fmt.Errorf("one of --type, --group or --commitment is required")
			}

			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			h, err := p.hierarchy(cmd.Context())
			if err != nil {
				return err
			}
			if rule.CommitmentID != "" {
				if _, ok := h.Commitment(rule.CommitmentID); !ok {
					return fmt.Errorf("unknown commitment %q", rule.CommitmentID)
				}
			}
			if rule.GroupID != "" {
				if _, ok := h.Group(rule.GroupID); !ok {
					return fmt.Errorf("unknown commitment group %q", rule.GroupID)
				}
			}
			if rule.TypeID != "" {
				if _, ok := h.Type(rule.TypeID); !ok {
					return fmt.Errorf("unknown commitment type %q", rule.TypeID)
				}
			}

			rules, err := classify.LoadRules(p.root)
			if err != nil {
				return err
			}
			if first {
				rules = append([]classify.Rule{rule}, rules...)
			} else {
				rules = append(rules, rule)
			}
			if err := classify.SaveRules(p.root, rules); err != nil {
				return err
			}
			fmt.Printf("Added rule %q (%d rules)\n", rule.Contains, len(rules))
			return nil
		},
	}
	cmd.Flags().StringVar(&rule.TypeID, "type", "", "commitment type id")
	cmd.Flags().StringVar(&rule.GroupID, "group", "", "commitment group id")
	cmd.Flags().StringVar(&rule.CommitmentID, "commitment", "", "commitment id")
	cmd.Flags().BoolVar(&first, "first", false, "insert before every other rule")
	return cmd
}

func newRulesApplyCommand() *cobra.Command {
	var months []string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Classify unclassified transactions with the current rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			ctx := cmd.Context()

			q := store.Query{CompanyID: p.companyID()}
			if len(months) > 0 {
				ms, err := monthsFlag(months)
				if err != nil {
					return err
				}
				q.From, q.To = ms[0].First(), ms[len(ms)-1].Next().First()
			}
			ds, err := p.loader().Load(ctx, q)
			if err != nil {
				return err
			}
			m, err := p.matcher(ctx)
			if err != nil {
				return err
			}

			n, err := classify.Apply(ctx, p.store, m, ds.Transactions, p.logger)
			if err != nil {
				return err
			}
			if n > 0 {
				details := fmt.Sprintf("%d of %d transactions classified", n, len(ds.Transactions))
				if err := p.audit.Record(p.companyID(), auditlog.ActionClassify, "", details); err != nil {
					p.logger.WarnContext(ctx, "writing audit log failed", log.FieldError, err)
				}
				p.notifier.Changed(ctx, p.companyID(), refresh.TableClassifications, log.OpCreate)
			}
			fmt.Printf("Classified %d of %d transactions\n", n, len(ds.Transactions))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&months, "month", nil, "restrict to months YYYY-MM (repeatable; default all)")
	return cmd
}
