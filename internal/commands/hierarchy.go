package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/refresh"
)

func newHierarchyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Show or sync the commitment hierarchy",
	}
	cmd.AddCommand(newHierarchyShowCommand(), newHierarchySyncCommand())
	return cmd
}

func newHierarchyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the hierarchy stored for the company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			h, err := p.hierarchy(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, t := range h.Types() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.ID, t.Nature)
				for _, g := range h.GroupsOf(t.ID) {
					fmt.Fprintf(w, "  %s\t%s\t\n", g.Name, g.ID)
					for _, c := range h.CommitmentsOf(g.ID) {
						fmt.Fprintf(w, "    %s\t%s\t\n", c.Name, c.ID)
					}
				}
			}
			return w.Flush()
		},
	}
}

func newHierarchySyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Write hierarchy/commitments.csv to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			h, err := hierarchy.Load(p.root)
			if err != nil {
				return err
			}
			types, groups, commitments := h.WithCompany(p.companyID())
			if err := p.store.SaveHierarchy(cmd.Context(), types, groups, commitments); err != nil {
				return fmt.Errorf("saving commitment hierarchy: %w", err)
			}
			p.notifier.Changed(cmd.Context(), p.companyID(), refresh.TableHierarchy, log.OpUpdate)
			fmt.Printf("Synced %d types, %d groups, %d commitments\n", len(types), len(groups), len(commitments))
			return nil
		},
	}
}
