// Package review accumulates findings the conversion pipeline could not
// confidently auto-resolve and writes them out as a single per-run report.
// Any pipeline stage may record into the shared collector; the collector has
// no opinions about what constitutes a finding.
package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Finding severities.
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
	SeverityInfo    = "INFO"
)

// Finding is one item requiring human attention.
type Finding struct {
	File            string `json:"file"`
	Object          string `json:"object_name"`
	ObjectType      string `json:"object_type"`
	IssueType       string `json:"issue_type"`
	Severity        string `json:"severity"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	Line            int    `json:"line,omitempty"`
}

// Item is one recorded finding as it appears in the flushed report.
type Item struct {
	Timestamp string `json:"timestamp"`
	Finding
	Status string `json:"status"`
}

// Collector is a concurrency-safe sink for findings. The zero value is not
// usable; construct with NewCollector.
type Collector struct {
	mu      sync.Mutex
	items   []Item
	flushed string
	now     func() time.Time
}

func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// Record appends a finding. It never fails; a finding with no severity is
// stored as a warning.
func (c *Collector) Record(f Finding) {
	if f.Severity == "" {
		f.Severity = SeverityWarning
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, Item{
		Timestamp: c.now().Format(time.RFC3339),
		Finding:   f,
		Status:    "PENDING_REVIEW",
	})
}

// Count returns the number of recorded findings.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Report is the aggregate shape persisted by Flush and read back by report
// viewers.
type Report struct {
	GeneratedAt  string         `json:"generated_at"`
	Total        int            `json:"total_items"`
	BySeverity   map[string]int `json:"by_severity"`
	ByIssueType  map[string]int `json:"by_issue_type"`
	ByFile       map[string]int `json:"by_file"`
	Instructions Instructions   `json:"instructions"`
	Items        []Item         `json:"items"`
}

// Instructions is the reviewer guidance embedded in every report.
type Instructions struct {
	Overview       string            `json:"overview"`
	NextSteps      []string          `json:"next_steps"`
	SeverityLevels map[string]string `json:"severity_levels"`
}

func defaultInstructions() Instructions {
	return Instructions{
		Overview: "Each item below needs a human decision before the converted scripts go live.",
		NextSteps: []string{
			"Work through ERROR items first; the converted output is incomplete without them.",
			"Apply the suggested action or record why it does not apply.",
			"Re-run the conversion after fixing source scripts to confirm the item clears.",
		},
		SeverityLevels: map[string]string{
			SeverityError:   "conversion produced no usable output for this construct",
			SeverityWarning: "output was produced but its semantics need verification",
			SeverityInfo:    "informational; no action usually required",
		},
	}
}

// Flush writes the aggregate report into dir and returns its path. With no
// recorded findings it writes nothing and returns "". Flushing twice in one
// run writes one file and returns the same path both times.
func (c *Collector) Flush(dir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return "", nil
	}
	if c.flushed != "" {
		return c.flushed, nil
	}

	r := Report{
		GeneratedAt:  c.now().Format(time.RFC3339),
		Total:        len(c.items),
		BySeverity:   map[string]int{},
		ByIssueType:  map[string]int{},
		ByFile:       map[string]int{},
		Instructions: defaultInstructions(),
		Items:        c.items,
	}
	for _, it := range c.items {
		r.BySeverity[it.Severity]++
		r.ByIssueType[it.IssueType]++
		r.ByFile[it.File]++
	}

	name := fmt.Sprintf("manual_review_required_%s.json", c.now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling manual review report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manual review report: %w", err)
	}
	c.flushed = path
	return path, nil
}

// LoadReport reads a previously flushed report file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manual review report: %w", err)
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing manual review report: %w", err)
	}
	return r, nil
}
