package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/refresh"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow change notifications from other fluxo processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if p.amqp == nil {
				return errors.New("watch needs notifications.amqp_url (or FLUXO_AMQP_URL)")
			}
			fmt.Printf("Watching %s for changes to company %s (Ctrl-C to stop)\n", p.cfg.Notifications.Queue, p.companyID())
			err = refresh.Listen(cmd.Context(), p.amqp, p.tracker, p.logger)
			if errors.Is(cmd.Context().Err(), context.Canceled) {
				return nil
			}
			return err
		},
	}
}
