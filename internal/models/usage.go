// Package models defines the result types of a usage analysis.
package models

import "sort"

// ArtifactUsage is the reference count for one artifact of the dependency set.
type ArtifactUsage struct {
	Coordinate string `json:"coordinate"`
	Group      string `json:"group"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	References int64  `json:"references"`
}

// UsageSummary aggregates run-level figures.
type UsageSummary struct {
	Artifacts         int   `json:"artifacts"`
	ArtifactsUsed     int   `json:"artifacts_used"`
	ClassesIndexed    int   `json:"classes_indexed"`
	IndexCollisions   int   `json:"index_collisions"`
	ArchivesSkipped   int   `json:"archives_skipped"`
	ClassFilesScanned int   `json:"class_files_scanned"`
	ClassFilesFailed  int   `json:"class_files_failed"`
	TotalReferences   int64 `json:"total_references"`
}

// UsageAnalysis is the complete result of one run. Artifacts always covers
// the whole dependency set, zero counts included; filtering for display is a
// presentation concern.
type UsageAnalysis struct {
	ClassesDir string          `json:"classes_dir"`
	Artifacts  []ArtifactUsage `json:"artifacts"`
	Summary    UsageSummary    `json:"summary"`
}

// Sort orders artifacts by descending reference count, ties broken by
// ascending coordinate, so output is reproducible across runs and worker
// counts.
func (a *UsageAnalysis) Sort() {
	sort.Slice(a.Artifacts, func(i, j int) bool {
		if a.Artifacts[i].References != a.Artifacts[j].References {
			return a.Artifacts[i].References > a.Artifacts[j].References
		}
		return a.Artifacts[i].Coordinate < a.Artifacts[j].Coordinate
	})
}

// Used returns only the artifacts with at least one reference, in the
// receiver's current order.
func (a *UsageAnalysis) Used() []ArtifactUsage {
	used := make([]ArtifactUsage, 0, len(a.Artifacts))
	for _, u := range a.Artifacts {
		if u.References > 0 {
			used = append(used, u)
		}
	}
	return used
}
