package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The repository's queries must line up with the shipped migration; a column
// referenced here but missing from the schema fails every request at runtime.
func TestProjectMetricsSchemaMatchesQueries(t *testing.T) {
	cols := migrationColumns(t, "000004_metrics_imports.up.sql", "project_metrics")
	for _, c := range []string{"id", "project_id", "time", "metric", "value", "tags"} {
		require.Contains(t, cols, c, "project_metrics is missing column %q", c)
	}
}

func migrationColumns(t *testing.T, file, table string) map[string]bool {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", file))
	require.NoError(t, err)

	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\);`)
	m := re.FindStringSubmatch(string(raw))
	require.NotNil(t, m, "CREATE TABLE %s not found in %s", table, file)

	cols := map[string]bool{}
	for _, line := range strings.Split(m[1], "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		switch name {
		case "unique", "primary", "foreign", "constraint", "check":
			continue
		}
		cols[name] = true
	}
	return cols
}
