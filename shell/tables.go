package shell

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dbcdk/laconicman/reconcile"
	"github.com/dbcdk/laconicman/resources"
)

const (
	statusOk      = "ok"
	statusMissing = "-"
	statusFailed  = "failed"
)

func recordStatus(present bool) string {
	if present {
		return statusOk
	}
	return statusMissing
}

// writeReportTable renders one row per host: ingress name, host and
// the two record statuses. Hosts whose lookup failed show "failed" in
// both columns so they cannot be mistaken for confirmed absence.
func writeReportTable(out io.Writer, statuses []reconcile.HostStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INGRESS\tHOST\tDEPLOYMENT RECORD\tDNS RECORD")

	for _, s := range statuses {
		deployment := recordStatus(s.Presence.HasDeploymentRecord)
		dns := recordStatus(s.Presence.HasDnsRecord)
		if s.Indeterminate {
			deployment = statusFailed
			dns = statusFailed
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.IngressName, s.Host, deployment, dns)
	}

	w.Flush()
}

func writeRelatedTable(out io.Writer, rows []relatedRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INGRESS\tHOST\tPODS\tDEPLOYMENTS\tREPLICASETS\tSERVICES")

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.IngressName,
			orDash(row.Host),
			joinOrDash(row.Related.Pods),
			joinOrDash(row.Related.Deployments),
			joinOrDash(row.Related.ReplicaSets),
			joinOrDash(row.Related.Services),
		)
	}

	w.Flush()
}

type relatedRow struct {
	IngressName string
	Host        string
	Related     resources.Related
}

func orDash(s string) string {
	if s == "" {
		return statusMissing
	}
	return s
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return statusMissing
	}
	return strings.Join(names, ",")
}
