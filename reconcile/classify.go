package reconcile

import "github.com/dbcdk/laconicman/registry"

// Category is the drift classification for one ingress host. The four
// determinate values are a total mapping of the two presence booleans;
// Indeterminate marks hosts whose registry lookup failed and is never
// eligible for cleanup.
type Category int

const (
	Consistent Category = iota
	DeploymentMissingOnly
	BothMissing
	DnsMissingOnly
	Indeterminate
)

func (c Category) String() string {
	switch c {
	case Consistent:
		return "consistent"
	case DeploymentMissingOnly:
		return "deployment-missing"
	case BothMissing:
		return "both-missing"
	case DnsMissingOnly:
		return "dns-missing"
	case Indeterminate:
		return "indeterminate"
	}
	return "unknown"
}

// Classify maps confirmed registry presence to a drift category.
func Classify(p registry.Presence) Category {
	switch {
	case p.HasDnsRecord && p.HasDeploymentRecord:
		return Consistent
	case p.HasDnsRecord && !p.HasDeploymentRecord:
		return DeploymentMissingOnly
	case !p.HasDnsRecord && p.HasDeploymentRecord:
		return DnsMissingOnly
	default:
		return BothMissing
	}
}

// StatusCategory is Classify lifted to a HostStatus: a host whose
// lookup failed stays Indeterminate no matter what the zero-valued
// presence booleans would classify as.
func StatusCategory(s HostStatus) Category {
	if s.Indeterminate {
		return Indeterminate
	}
	return Classify(s.Presence)
}

// CleanupEligible reports whether hosts of this category may feed the
// cleanup flow at all.
func CleanupEligible(c Category) bool {
	return c == BothMissing || c == DeploymentMissingOnly
}
