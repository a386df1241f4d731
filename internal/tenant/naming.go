package tenant

import (
	"regexp"
	"strconv"
	"strings"
)

// maxPrefixLen caps the normalized project-name prefix of a schema name so
// the full identifier stays well inside PostgreSQL's 63-byte limit.
const maxPrefixLen = 40

var nonAlnumRuns = regexp.MustCompile(`[^a-z0-9]+`)

// SchemaName derives the deterministic schema identifier for a project.
// The display name is lowercased, runs of non-alphanumeric characters
// collapse to single underscores, and the numeric project id is appended so
// two projects can never collide even when their names normalize equally.
func SchemaName(projectName string, projectID int) string {
	s := strings.ToLower(projectName)
	s = nonAlnumRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > maxPrefixLen {
		s = strings.TrimRight(s[:maxPrefixLen], "_")
	}
	if s == "" {
		s = "project"
	}
	return s + "_" + strconv.Itoa(projectID)
}
