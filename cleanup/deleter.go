package cleanup

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbcdk/laconicman/kubernetes"
	"github.com/dbcdk/laconicman/util"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Plan partitions candidate deployment names into names that may be
// deleted and names held back by a protection rule. The two sets are
// disjoint and together cover the input exactly.
type Plan struct {
	Protected []string
	Deletable []string
}

func (p Plan) Empty() bool {
	return len(p.Protected) == 0 && len(p.Deletable) == 0
}

// Result reports what Execute did. Skipped counts protected names that
// were never attempted.
type Result struct {
	Deleted []string
	Skipped []string
	Failed  []string
}

// PartialDeletionError carries the names whose deletion failed. The
// remaining names were still attempted; a cleanup run never aborts
// mid-batch.
type PartialDeletionError struct {
	Failed []string
	errs   error
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("failed to delete %d deployment(s): %s: %v",
		len(e.Failed), strings.Join(e.Failed, ", "), e.errs)
}

func (e *PartialDeletionError) Unwrap() error {
	return e.errs
}

// Deleter issues guarded deployment deletions. Every name passes
// through the protection rules before any delete call is made.
type Deleter struct {
	config  *util.Config
	cluster kubernetes.Cluster
	rules   *Rules
}

func NewDeleter(config *util.Config, cluster kubernetes.Cluster, rules *Rules) *Deleter {
	return &Deleter{
		config:  config,
		cluster: cluster,
		rules:   rules,
	}
}

// Plan is pure: it never talks to the cluster.
func (d *Deleter) Plan(names []string) Plan {
	plan := Plan{
		Protected: make([]string, 0),
		Deletable: make([]string, 0),
	}

	for _, name := range names {
		if name == "" {
			continue
		}
		if d.rules.Protected(name) {
			plan.Protected = append(plan.Protected, name)
		} else {
			plan.Deletable = append(plan.Deletable, name)
		}
	}

	return plan
}

// Execute deletes the deletable names of the plan within the given
// namespace. With confirmed=false nothing is deleted and zero counts
// are returned. Individual failures do not stop the batch; they are
// collected into a PartialDeletionError. Protected names are never
// attempted.
func (d *Deleter) Execute(ctx context.Context, namespace string, plan Plan, confirmed bool) (Result, error) {
	if !confirmed {
		log.Info("Deletion not confirmed, aborting",
			zap.Int("deletable", len(plan.Deletable)),
		)
		return Result{}, nil
	}

	result := Result{
		Skipped: append([]string(nil), plan.Protected...),
	}

	var errs error
	for _, name := range plan.Deletable {
		if err := ctx.Err(); err != nil {
			// Honor cancellation between deletions; what already ran
			// stands, nothing further is started.
			return result, err
		}

		if err := d.cluster.DeleteResource(ctx, kubernetes.KindDeployment, namespace, name); err != nil {
			d.config.Counters.Deletions.WithLabelValues("error").Inc()
			log.Error("Deleting deployment failed",
				zap.String("namespace", namespace),
				zap.String("name", name),
				zap.String("error", err.Error()),
			)
			result.Failed = append(result.Failed, name)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		d.config.Counters.Deletions.WithLabelValues("success").Inc()
		log.Info("Deleted deployment",
			zap.String("namespace", namespace),
			zap.String("name", name),
		)
		result.Deleted = append(result.Deleted, name)
	}

	if len(result.Failed) > 0 {
		return result, &PartialDeletionError{Failed: result.Failed, errs: errs}
	}

	return result, nil
}
