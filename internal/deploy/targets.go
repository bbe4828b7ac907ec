// File path: internal/deploy/targets.go
package deploy

import (
	"path"
	"sort"
	"time"

	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/diffparse"
	"github.com/openassess/asset-history/internal/textutil"
)

// DeploymentState classifies a tier's artifact relative to the newest
// qualifying commit.
type DeploymentState string

const (
	StateDeployed DeploymentState = "deployed"
	StatePending  DeploymentState = "pending"
	StateMissing  DeploymentState = "missing"
	StateUnknown  DeploymentState = "unknown"
)

// Deployment is the derived freshness verdict for one tier.
type Deployment struct {
	State   DeploymentState `json:"state"`
	Updated *time.Time      `json:"updated"`
}

// TierStatus is the raw metadata fetched from one storage tier plus its
// derived deployment verdict.
type TierStatus struct {
	Status     string     `json:"status"` // ok | missing | error
	Updated    *time.Time `json:"updated"`
	Size       *int64     `json:"size,omitempty"`
	Checksum   string     `json:"checksum,omitempty"`
	Generation string     `json:"generation,omitempty"`
	Error      string     `json:"error,omitempty"`
	Deployment Deployment `json:"deployment"`
}

// Target is one deployable artifact accumulated across the commits of a
// request window.
type Target struct {
	Key          string      `json:"key"`
	Type         string      `json:"type"` // csv | xliff
	DisplayName  string      `json:"displayName"`
	Object       string      `json:"object"`
	Filenames    []string    `json:"filenames"`
	LatestCommit *time.Time  `json:"latestCommitDate"`
	Dev          *TierStatus `json:"dev"`
	Prod         *TierStatus `json:"prod"`
}

// Accumulator collects deployment targets while the commit list is being
// enriched. It is request-scoped and not safe for concurrent use; the
// enrichment pipeline feeds it from a single goroutine.
type Accumulator struct {
	cfg     config.BucketConfig
	csvName string
	targets map[string]*Target
	order   []string
}

// NewAccumulator builds an empty accumulator for the configured buckets.
func NewAccumulator(buckets config.BucketConfig, translationCSV string) *Accumulator {
	return &Accumulator{
		cfg:     buckets,
		csvName: translationCSV,
		targets: make(map[string]*Target),
	}
}

// Observe records that a commit dated at commitDate touched filename. Files
// that map to no known artifact are ignored. Returns the target key when one
// matched.
func (a *Accumulator) Observe(filename string, commitDate time.Time) (string, bool) {
	var t *Target
	switch diffparse.Classify(filename, a.csvName) {
	case diffparse.KindCSV:
		t = a.upsert(a.csvName, "csv", "Item bank translations", a.cfg.CSVObject)
	case diffparse.KindXLIFF:
		base := path.Base(filename)
		display := "Survey bundle"
		if code, ok := textutil.InferLocale(filename); ok {
			display = textutil.LanguageName(code) + " survey bundle"
		}
		t = a.upsert(base, "xliff", display, a.cfg.XLIFFPrefix+base)
	default:
		return "", false
	}

	if !containsString(t.Filenames, filename) {
		t.Filenames = append(t.Filenames, filename)
		sort.Strings(t.Filenames)
	}
	if t.LatestCommit == nil || commitDate.After(*t.LatestCommit) {
		d := commitDate
		t.LatestCommit = &d
	}
	return t.Key, true
}

func (a *Accumulator) upsert(key, typ, display, object string) *Target {
	if t, ok := a.targets[key]; ok {
		return t
	}
	t := &Target{Key: key, Type: typ, DisplayName: display, Object: object}
	a.targets[key] = t
	a.order = append(a.order, key)
	return t
}

// Targets returns the accumulated targets in first-seen order.
func (a *Accumulator) Targets() []*Target {
	out := make([]*Target, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.targets[key])
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
