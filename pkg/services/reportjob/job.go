// Package reportjob runs one end-to-end reporting pass: resolve owners,
// aggregate their usage and cost, publish both CSVs, notify the list.
package reportjob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/de-tools/cluster-report/pkg/config"
	"github.com/de-tools/cluster-report/pkg/models/domain"
	"github.com/de-tools/cluster-report/pkg/services/billing"
	"github.com/de-tools/cluster-report/pkg/services/inventory"
	"github.com/de-tools/cluster-report/pkg/services/notify"
	"github.com/de-tools/cluster-report/pkg/services/report"
	"github.com/de-tools/cluster-report/pkg/store/objectstore"
	"github.com/rs/zerolog"
)

const emailSubject = "Weekly Cluster Usage and Cost Report"

const emailBodyTemplate = `Hello,

Please find attached usage and cost reports for your compute cluster.

The %s spreadsheet shows the compute time for every user on any given day from %s to date.

On the other hand, the %s spreadsheet shows the total cost incurred by every user's server from %s to date.

Please contact %s with any questions you may have.

Best,

%s
`

// SkipReason explains a run that finished without producing reports.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipEmptyWindow means the configured start date is not before today.
	SkipEmptyWindow
	// SkipNoOwners means discovery found no owner-tagged instances.
	SkipNoOwners
)

// Result is the outcome of one run.
type Result struct {
	Window     domain.ReportWindow
	OwnersCost []domain.OwnerCost
	Skipped    SkipReason
}

// Runner wires the collaborators for one reporting pass.
type Runner struct {
	cfg       *config.Config
	inventory inventory.Explorer
	billing   billing.Aggregator
	store     objectstore.Store
	mailer    notify.Mailer

	// now is injected so tests can pin the window's end date.
	now func() time.Time
	// workDir holds the local report files between store round-trips and
	// the notification send. Defaults to the OS temp dir.
	workDir string
}

type Option func(*Runner)

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithWorkDir(dir string) Option {
	return func(r *Runner) { r.workDir = dir }
}

func NewRunner(
	cfg *config.Config,
	inv inventory.Explorer,
	agg billing.Aggregator,
	store objectstore.Store,
	mailer notify.Mailer,
	opts ...Option,
) *Runner {
	r := &Runner{
		cfg:       cfg,
		inventory: inv,
		billing:   agg,
		store:     store,
		mailer:    mailer,
		now:       time.Now,
		workDir:   os.TempDir(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one reporting pass. Inventory, billing and storage errors
// abort the run; a notification failure is logged and swallowed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	end := r.now()
	window := domain.ReportWindow{
		Start: r.cfg.StartDate,
		End:   time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC),
	}
	if !window.Valid() {
		logger.Info().
			Str("start", window.StartDate()).
			Str("end", window.EndDate()).
			Msg("report window is empty, nothing to do")
		return &Result{Window: window, Skipped: SkipEmptyWindow}, nil
	}

	cluster := domain.ClusterTag{Key: r.cfg.ClusterTagKey, Value: r.cfg.ClusterTagValue}
	owners, err := r.inventory.ResolveOwners(ctx, cluster, r.cfg.OwnerTagKey)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		logger.Info().
			Str("tag", cluster.Key+"="+cluster.Value).
			Msg("no owner-tagged instances found, nothing to report")
		return &Result{Window: window, Skipped: SkipNoOwners}, nil
	}
	logger.Info().Int("owners", len(owners)).Msg("resolved cluster owners")

	usagePath, err := r.publishUsageReport(ctx, window, owners)
	if err != nil {
		return nil, err
	}

	ownersCost, costPath, err := r.publishCostReport(ctx, window, owners)
	if err != nil {
		return nil, err
	}

	r.sendNotification(ctx, window, usagePath, costPath)

	return &Result{Window: window, OwnersCost: ownersCost}, nil
}

func (r *Runner) publishUsageReport(
	ctx context.Context,
	window domain.ReportWindow,
	owners []domain.OwnerID,
) (string, error) {
	rows := make([]domain.OwnerUsage, 0, len(owners))
	for _, owner := range owners {
		series, err := r.billing.DailyUsage(ctx, window, r.cfg.OwnerTagKey, owner)
		if err != nil {
			return "", err
		}
		rows = append(rows, domain.OwnerUsage{Owner: owner, Series: series})
	}

	mode := report.ColumnsByDate
	if r.cfg.CompatPositionalColumns {
		mode = report.ColumnsPositional
	}
	table := report.BuildUsageTable(rows, mode)

	return r.publish(ctx, r.cfg.UsageKey, table)
}

func (r *Runner) publishCostReport(
	ctx context.Context,
	window domain.ReportWindow,
	owners []domain.OwnerID,
) ([]domain.OwnerCost, string, error) {
	rows := make([]domain.OwnerCost, 0, len(owners))
	for _, owner := range owners {
		total, err := r.billing.TotalCost(ctx, window, r.cfg.OwnerTagKey, owner)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, domain.OwnerCost{Owner: owner, Total: total})
	}

	path, err := r.publish(ctx, r.cfg.CostKey, report.BuildCostTable(rows))
	if err != nil {
		return nil, "", err
	}
	return rows, path, nil
}

// publish performs the store round-trip for one report key: fetch the
// previous artifact, truncate and rewrite it locally, push it back. The
// fetch is vestigial (the file is rewritten from scratch) so its failure
// only warns; the first run against an empty bucket is expected to hit it.
func (r *Runner) publish(ctx context.Context, key string, table [][]string) (string, error) {
	logger := zerolog.Ctx(ctx)
	localPath := filepath.Join(r.workDir, filepath.Base(key))

	if err := r.store.Download(ctx, r.cfg.Bucket, key, localPath); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("could not fetch previous report")
	}

	if err := report.WriteCSVFile(localPath, table); err != nil {
		return "", err
	}

	if err := r.store.Upload(ctx, localPath, r.cfg.Bucket, key); err != nil {
		return "", err
	}
	logger.Info().Str("key", key).Int("rows", len(table)).Msg("report uploaded")
	return localPath, nil
}

func (r *Runner) sendNotification(ctx context.Context, window domain.ReportWindow, usagePath, costPath string) {
	logger := zerolog.Ctx(ctx)

	body := fmt.Sprintf(
		emailBodyTemplate,
		filepath.Base(usagePath), window.PrettyStart(),
		filepath.Base(costPath), window.PrettyStart(),
		r.cfg.HelpContact,
		r.cfg.SenderName,
	)

	messageID, err := r.mailer.Send(ctx, notify.Message{
		Sender:      r.cfg.SenderAddress,
		SenderName:  r.cfg.SenderName,
		Recipients:  r.cfg.Recipients,
		Subject:     emailSubject,
		Body:        body,
		Attachments: []string{usagePath, costPath},
	})
	if err != nil {
		// The run still counts as successful when the mail transport fails.
		logger.Error().Err(err).Msg("failed to send report notification")
		return
	}
	logger.Info().Str("message_id", messageID).Msg("report notification sent")
}
