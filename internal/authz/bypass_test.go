package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBypassTablePrefixMatching(t *testing.T) {
	table := NewBypassTable(map[string][]string{
		"REGIONAL_AM": {"/dashboard", "/reports/"},
		"AUDITOR":     {"/reports"},
	})

	require.True(t, table.Allows("REGIONAL_AM", "/dashboard"))
	require.True(t, table.Allows("REGIONAL_AM", "/dashboard/widgets"))
	require.True(t, table.Allows("REGIONAL_AM", "/reports/annual"))
	require.False(t, table.Allows("REGIONAL_AM", "/dashboards"))
	require.False(t, table.Allows("REGIONAL_AM", "/families"))
	require.False(t, table.Allows("AUDITOR", "/dashboard"))
	require.False(t, table.Allows("UNKNOWN", "/dashboard"))
	require.False(t, table.Allows("", "/dashboard"))
}

func TestBypassTableRootPrefixMatchesEverything(t *testing.T) {
	table := NewBypassTable(map[string][]string{"SYSTEM_ADMIN": {"/"}})
	require.True(t, table.Allows("SYSTEM_ADMIN", "/"))
	require.True(t, table.Allows("SYSTEM_ADMIN", "/admin/roles/3/permissions"))
}

func TestNewBypassTableDropsMalformedEntries(t *testing.T) {
	table := NewBypassTable(map[string][]string{
		"":        {"/x"},
		"PARTIAL": {"", "no-slash", "/ok"},
		"EMPTY":   {"", "relative"},
	})
	require.True(t, table.Allows("PARTIAL", "/ok"))
	require.False(t, table.Allows("EMPTY", "/anything"))
	require.Len(t, table.Classifiers(), 1)
}

func TestParseBypassRules(t *testing.T) {
	rules, err := ParseBypassRules("REGIONAL_AM:/dashboard|/reports, AUDITOR:/reports")
	require.NoError(t, err)
	require.Equal(t, []string{"/dashboard", "/reports"}, rules["REGIONAL_AM"])
	require.Equal(t, []string{"/reports"}, rules["AUDITOR"])

	empty, err := ParseBypassRules("  ")
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = ParseBypassRules("no-colon-here")
	require.Error(t, err)

	_, err = ParseBypassRules("X:relative")
	require.Error(t, err)
}
