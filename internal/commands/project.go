package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/auditlog"
	"github.com/fluxo-dev/fluxo/internal/classify"
	"github.com/fluxo-dev/fluxo/internal/config"
	"github.com/fluxo-dev/fluxo/internal/dashboard"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/period"
	"github.com/fluxo-dev/fluxo/internal/refresh"
	"github.com/fluxo-dev/fluxo/internal/store"
	"github.com/fluxo-dev/fluxo/internal/store/backend"
)

// project is an opened fluxo directory: its config, store and the
// collaborators every write shares.
type project struct {
	root     string
	cfg      *config.Config
	logger   *log.Logger
	store    store.Store
	tracker  *refresh.Tracker
	amqp     *refresh.AMQPClient
	notifier *refresh.Notifier
	audit    *auditlog.Log
}

func repoFlag(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("repo")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return log.New(log.Config{Level: level, Format: cfg.Format, Component: log.ComponentApp, Output: os.Stderr}), nil
}

// openProject loads the config under the --repo directory and connects
// the store. Change notifications are published only when an AMQP URL is
// configured.
func openProject(cmd *cobra.Command) (*project, error) {
	root, err := repoFlag(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)

	s, err := backend.Open(cmd.Context(), cfg.Backend, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend.Type, err)
	}

	p := &project{
		root:    root,
		cfg:     cfg,
		logger:  logger,
		store:   s,
		tracker: refresh.NewTracker(),
		audit:   auditlog.New(root),
	}

	var publisher refresh.Publisher
	if cfg.Notifications.AMQPURL != "" {
		client, err := refresh.DialAMQP(cfg.Notifications.AMQPURL, cfg.Notifications.Exchange, cfg.Notifications.Queue, logger)
		if err != nil {
			logger.Warn("change notifications disabled", log.FieldError, err)
		} else {
			p.amqp = client
			publisher = client
		}
	}
	p.notifier = refresh.NewNotifier(p.tracker, publisher, logger)
	return p, nil
}

func (p *project) Close() {
	if p.amqp != nil {
		p.amqp.Close()
	}
	if err := p.store.Close(); err != nil {
		p.logger.Warn("closing store failed", log.FieldError, err)
	}
}

func (p *project) companyID() string { return p.cfg.Company.ID }

func (p *project) dashboard() *dashboard.Service {
	return dashboard.NewService(p.store, p.companyID(), p.tracker, dashboard.Options{
		ChunkSize:         p.cfg.Backend.ChunkSize,
		HideEmptyAccounts: p.cfg.CashFlow.HideEmptyAccounts,
		CarryBalance:      p.cfg.CashFlow.CarryBalance,
		ManualAccountName: p.cfg.CashFlow.ManualAccountName,
		UnclassifiedLabel: p.cfg.DRE.UnclassifiedLabel,
	}, p.logger)
}

func (p *project) loader() *store.Loader {
	return store.NewLoader(p.store, p.cfg.Backend.ChunkSize, p.logger)
}

func (p *project) hierarchy(ctx context.Context) (*hierarchy.Service, error) {
	return p.loader().Hierarchy(ctx, p.companyID())
}

func (p *project) matcher(ctx context.Context) (*classify.Matcher, error) {
	rules, err := classify.LoadRules(p.root)
	if err != nil {
		return nil, err
	}
	h, err := p.hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return classify.NewMatcher(rules, h), nil
}

// monthsFlag parses --month values; with none given it returns the current month.
func monthsFlag(values []string) ([]period.Month, error) {
	if len(values) == 0 {
		return []period.Month{period.MonthOf(time.Now())}, nil
	}
	return period.ParseMonths(values)
}

func yearFlag(year int) int {
	if year == 0 {
		return time.Now().Year()
	}
	return year
}
