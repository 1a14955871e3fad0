package jobs

import (
	"context"

	"clinicalorders/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultAuditSpec runs the audit every five minutes, on the minute.
const DefaultAuditSpec = "0 */5 * * * *"

// ConflictFinder is satisfied by queries.FindActiveOrderConflictsQueryHandler.
type ConflictFinder interface {
	Handle(ctx context.Context, query queries.FindActiveOrderConflictsQuery) ([]queries.ActiveOrderConflict, error)
}

// AuditReporter receives the outcome of every audit run.
type AuditReporter interface {
	AuditCompleted(conflicts int)
	AuditFailed()
}

type nopAuditReporter struct{}

func (nopAuditReporter) AuditCompleted(int) {}
func (nopAuditReporter) AuditFailed()       {}

// ActiveOrderAuditJob periodically looks for orders that are active together although
// the save rules forbid it, and reports each one.
type ActiveOrderAuditJob struct {
	finder   ConflictFinder
	reporter AuditReporter
	spec     string
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewActiveOrderAuditJob creates the job. An empty spec means DefaultAuditSpec; a nil
// reporter discards outcomes.
func NewActiveOrderAuditJob(
	finder ConflictFinder,
	reporter AuditReporter,
	spec string,
	logger zerolog.Logger,
) *ActiveOrderAuditJob {
	if spec == "" {
		spec = DefaultAuditSpec
	}
	if reporter == nil {
		reporter = nopAuditReporter{}
	}
	return &ActiveOrderAuditJob{
		finder:   finder,
		reporter: reporter,
		spec:     spec,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With().Str("component", "active_order_audit_job").Logger(),
	}
}

// Run performs one audit as of now and returns what it found.
func (j *ActiveOrderAuditJob) Run(ctx context.Context) ([]queries.ActiveOrderConflict, error) {
	conflicts, err := j.finder.Handle(ctx, queries.NewFindActiveOrderConflictsQuery(nil))
	if err != nil {
		j.reporter.AuditFailed()
		j.logger.Error().Err(err).Msg("active order audit failed")
		return nil, err
	}

	j.reporter.AuditCompleted(len(conflicts))
	for _, c := range conflicts {
		ids := make([]string, 0, len(c.ConflictsWith))
		for _, id := range c.ConflictsWith {
			ids = append(ids, id.String())
		}
		j.logger.Warn().
			Str("patient", c.Patient.String()).
			Str("careSetting", c.CareSetting.String()).
			Str("order", c.Order.String()).
			Str("orderNumber", c.OrderNumber).
			Strs("conflictsWith", ids).
			Msg("conflicting active orders")
	}
	j.logger.Debug().Int("conflicts", len(conflicts)).Msg("active order audit finished")
	return conflicts, nil
}

// Start schedules Run on the job's cron spec.
func (j *ActiveOrderAuditJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		_, _ = j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info().Str("spec", j.spec).Msg("active order audit job started")
	return nil
}

// Stop stops scheduling and waits for a running audit to finish.
func (j *ActiveOrderAuditJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("active order audit job stopped")
}
