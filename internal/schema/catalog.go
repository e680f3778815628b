package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Filter decides which cataloged tables a run should skip. It is composed
// of exact names and regular expression patterns; exclusion always wins
// over batch membership.
type Filter struct {
	exact    map[string]bool
	patterns []*regexp.Regexp
}

// NewFilter compiles a filter from exact table names and regexp patterns.
func NewFilter(exact []string, patterns []string) (*Filter, error) {
	f := &Filter{exact: make(map[string]bool, len(exact))}
	for _, name := range exact {
		f.exact[strings.ToLower(name)] = true
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Excludes reports whether the table name is matched by the filter.
func (f *Filter) Excludes(name string) bool {
	if f == nil {
		return false
	}
	if f.exact[strings.ToLower(name)] {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Catalog is the static mapping of transferable tables and their batch
// partitioning. Batches are maintained by hand, so Validate asserts the
// invariants a hand-maintained list can drift on: every batch member has a
// spec, and no table belongs to two batches.
type Catalog struct {
	specs   map[string]TableSpec
	batches map[string][]string
}

func NewCatalog(specs []TableSpec, batches map[string][]string) *Catalog {
	c := &Catalog{
		specs:   make(map[string]TableSpec, len(specs)),
		batches: batches,
	}
	for _, s := range specs {
		c.specs[strings.ToLower(s.Name)] = s
	}
	return c
}

// Validate checks batch membership against the spec list and asserts
// disjointness across batches.
func (c *Catalog) Validate() error {
	seen := make(map[string]string)
	for _, batch := range batchIDs(c.batches) {
		for _, name := range c.batches[batch] {
			key := strings.ToLower(name)
			if _, ok := c.specs[key]; !ok {
				return fmt.Errorf("batch %q references unknown table %q", batch, name)
			}
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("table %q assigned to both batch %q and batch %q", name, prev, batch)
			}
			seen[key] = batch
		}
	}
	return nil
}

// Lookup returns the spec for a table name.
func (c *Catalog) Lookup(name string) (TableSpec, bool) {
	s, ok := c.specs[strings.ToLower(name)]
	return s, ok
}

// Batch returns the specs of one batch, minus filtered tables, in the
// order the batch declares them.
func (c *Catalog) Batch(id string, f *Filter) ([]TableSpec, error) {
	names, ok := c.batches[id]
	if !ok {
		return nil, fmt.Errorf("unknown batch %q (have: %s)", id, strings.Join(batchIDs(c.batches), ", "))
	}
	var specs []TableSpec
	for _, name := range names {
		if f.Excludes(name) {
			continue
		}
		specs = append(specs, c.specs[strings.ToLower(name)])
	}
	return specs, nil
}

// All returns every cataloged spec minus filtered tables, sorted by name.
func (c *Catalog) All(f *Filter) []TableSpec {
	var specs []TableSpec
	for _, s := range c.specs {
		if f.Excludes(s.Name) {
			continue
		}
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func batchIDs(batches map[string][]string) []string {
	ids := make([]string, 0, len(batches))
	for id := range batches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
