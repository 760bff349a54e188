package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dbcdk/laconicman/cleanup"
	"github.com/dbcdk/laconicman/kubernetes"
	"github.com/dbcdk/laconicman/logging"
	"github.com/dbcdk/laconicman/reconcile"
	"github.com/dbcdk/laconicman/resources"
	"github.com/dbcdk/laconicman/util"
	"go.uber.org/zap"
)

var log = logging.GetInstance()

const banner = `laconicman - ingress/registry drift checker`

// Shell is the interactive operator surface. It owns the cached report
// of the last reconciliation pass; menu actions that need one tell the
// operator to run the check first instead of silently refreshing.
type Shell struct {
	config     *util.Config
	cluster    kubernetes.Cluster
	reconciler *reconcile.Reconciler
	resolver   *resources.Resolver
	deleter    *cleanup.Deleter

	in     *bufio.Reader
	out    io.Writer
	report *reconcile.Report
}

func New(config *util.Config, cluster kubernetes.Cluster, reconciler *reconcile.Reconciler, resolver *resources.Resolver, deleter *cleanup.Deleter, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		config:     config,
		cluster:    cluster,
		reconciler: reconciler,
		resolver:   resolver,
		deleter:    deleter,
		in:         bufio.NewReader(in),
		out:        out,
	}
}

// Run loops over the main menu until the operator exits. End-of-input
// and context cancellation both leave the loop cleanly.
func (s *Shell) Run(ctx context.Context) {
	fmt.Fprintln(s.out, banner)
	fmt.Fprintln(s.out, "Welcome to Laconicman!")

	for {
		fmt.Fprint(s.out, `
Main Menu:
1. Show all Ingress hosts
2. Check all Ingress hosts
3. Show all where only the DeploymentRecord is missing
4. Show all where both DNS and DeploymentRecord are missing
5. Show related Deployments, Pods, Services
6. Cleanup (!!! Dangerous and Experimental !!!)
7. Exit

Select an option (1-7): `)

		choice, ok := s.readLine(ctx)
		if !ok {
			fmt.Fprintln(s.out, "\nExiting the shell.")
			return
		}

		switch choice {
		case "1":
			s.showHosts(ctx)
		case "2":
			s.runCheck(ctx)
		case "3":
			s.showCategory(reconcile.DeploymentMissingOnly)
		case "4":
			s.showCategory(reconcile.BothMissing)
		case "5":
			s.showRelated(ctx)
		case "6":
			s.runCleanup(ctx)
		case "7":
			fmt.Fprintln(s.out, "Exiting the shell.")
			return
		default:
			fmt.Fprintln(s.out, "Invalid option. Please select a number between 1 and 7.")
		}
	}
}

// readLine returns false on end-of-input or cancellation. Callers
// treat that as "no"/exit, never as an error.
func (s *Shell) readLine(ctx context.Context) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}

	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	if ctx.Err() != nil {
		return "", false
	}

	return strings.TrimSpace(line), true
}

func (s *Shell) confirm(ctx context.Context, prompt string) bool {
	fmt.Fprint(s.out, prompt)
	answer, ok := s.readLine(ctx)
	if !ok {
		fmt.Fprintln(s.out)
		return false
	}
	return strings.EqualFold(answer, "yes")
}

func (s *Shell) showHosts(ctx context.Context) {
	refs, err := s.cluster.ListIngresses(ctx)
	if err != nil {
		s.reportError(err)
		return
	}

	fmt.Fprintln(s.out, "\nIngress Hosts:")
	for _, pair := range kubernetes.Pairs(refs) {
		fmt.Fprintf(s.out, "%s - %s\n", pair.IngressName, pair.Host)
	}
}

func (s *Shell) runCheck(ctx context.Context) {
	fmt.Fprintln(s.out, "\nChecking all Ingress hosts...")

	s.reconciler.Progress = func(done int, total int) {
		fmt.Fprintf(s.out, "\rChecked %d/%d hosts", done, total)
	}
	report, err := s.reconciler.Reconcile(ctx)
	fmt.Fprintln(s.out)
	if err != nil {
		s.reportError(err)
		return
	}

	s.report = report
	fmt.Fprintln(s.out, "\nCheck completed.")
	fmt.Fprintln(s.out, "\nResults:")
	writeReportTable(s.out, s.allStatuses())
}

func (s *Shell) allStatuses() []reconcile.HostStatus {
	statuses := make([]reconcile.HostStatus, 0, len(s.report.Hosts))
	for _, host := range s.report.Hosts {
		statuses = append(statuses, s.report.Statuses[host])
	}
	return statuses
}

func (s *Shell) showCategory(category reconcile.Category) {
	if s.report == nil {
		fmt.Fprintln(s.out, "Please run option 2 first.")
		return
	}

	fmt.Fprintln(s.out, "\nFiltered Results:")
	writeReportTable(s.out, s.report.ByCategory(category))
}

func (s *Shell) showRelated(ctx context.Context) {
	refs, err := s.cluster.ListIngresses(ctx)
	if err != nil {
		s.reportError(err)
		return
	}

	rows := make([]relatedRow, 0, len(refs))
	for idx, ref := range refs {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out)
			return
		}

		row := relatedRow{IngressName: ref.Name}
		if len(ref.Hosts) > 0 {
			row.Host = ref.Hosts[0]
		}

		related, err := s.resolver.Resolve(ctx, ref.Name)
		if err != nil {
			if errors.Is(err, kubernetes.ErrIngressNotFound) {
				fmt.Fprintf(s.out, "\nSkipping %s: %v\n", ref.Name, err)
				continue
			}
			s.reportError(err)
			return
		}
		row.Related = related
		rows = append(rows, row)

		fmt.Fprintf(s.out, "\rProgress: %d/%d Ingresses", idx+1, len(refs))
	}

	fmt.Fprintln(s.out, "\n\nResources for all Ingresses:")
	writeRelatedTable(s.out, rows)
}

func (s *Shell) runCleanup(ctx context.Context) {
	if s.report == nil {
		fmt.Fprintln(s.out, "Please run option 2 first.")
		return
	}

	fmt.Fprint(s.out, `
Cleanup Menu:
1. All where both DNS and DeploymentRecord are missing
2. All where only DeploymentRecord is missing

Select an option (1-2): `)

	choice, ok := s.readLine(ctx)
	if !ok {
		fmt.Fprintln(s.out)
		return
	}

	var category reconcile.Category
	switch choice {
	case "1":
		category = reconcile.BothMissing
	case "2":
		category = reconcile.DeploymentMissingOnly
	default:
		fmt.Fprintln(s.out, "Invalid choice. Please select 1 or 2.")
		return
	}

	if !reconcile.CleanupEligible(category) {
		fmt.Fprintln(s.out, "This category is not eligible for cleanup.")
		return
	}

	statuses := s.report.ByCategory(category)
	if len(statuses) == 0 {
		fmt.Fprintln(s.out, "No resources found for deletion.")
		return
	}

	writeReportTable(s.out, statuses)

	if !s.confirm(ctx, "\nDo you really want to delete resources for these ingresses? (yes/no): ") {
		fmt.Fprintln(s.out, "Deletion aborted.")
		return
	}

	for _, name := range reconcile.IngressNames(statuses) {
		s.cleanupIngress(ctx, name)
	}
}

func (s *Shell) cleanupIngress(ctx context.Context, ingressName string) {
	related, err := s.resolver.Resolve(ctx, ingressName)
	if err != nil {
		if errors.Is(err, kubernetes.ErrIngressNotFound) {
			fmt.Fprintf(s.out, "Skipping %s: %v\n", ingressName, err)
			return
		}
		s.reportError(err)
		return
	}

	plan := s.deleter.Plan(related.Deployments)
	if plan.Empty() {
		fmt.Fprintf(s.out, "No deployments found for deletion for Ingress %s.\n", ingressName)
		return
	}

	fmt.Fprintln(s.out, "\nAll Deployments:")
	for _, name := range plan.Protected {
		fmt.Fprintf(s.out, "  %s (Protected)\n", name)
	}
	for _, name := range plan.Deletable {
		fmt.Fprintf(s.out, "  %s (Deletable)\n", name)
	}

	if len(plan.Deletable) == 0 {
		fmt.Fprintln(s.out, "No deletable deployments found.")
		return
	}

	confirmed := s.confirm(ctx, "\nDo you really want to delete these deployments? (yes/no): ")
	result, err := s.deleter.Execute(ctx, related.Namespace, plan, confirmed)
	if !confirmed {
		fmt.Fprintln(s.out, "Deletion aborted.")
		return
	}
	if err != nil {
		var partial *cleanup.PartialDeletionError
		if errors.As(err, &partial) {
			fmt.Fprintf(s.out, "Some deletions failed: %s\n", strings.Join(partial.Failed, ", "))
		} else {
			s.reportError(err)
		}
	}

	fmt.Fprintf(s.out, "Deleted %d deployment(s), skipped %d protected, %d failed for Ingress %s.\n",
		len(result.Deleted), len(result.Skipped), len(result.Failed), ingressName)
}

func (s *Shell) reportError(err error) {
	log.Error("Operation failed", zap.String("error", err.Error()))
	fmt.Fprintf(s.out, "Error: %v\n", err)
}
