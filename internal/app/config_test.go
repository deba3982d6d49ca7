package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.False(t, cfg.IsProduction())

	table, err := cfg.BypassTable()
	require.NoError(t, err)
	require.True(t, table.Allows("SYSTEM_ADMIN", "/admin/pages"))
	require.True(t, table.Allows("REGIONAL_AM", "/dashboard"))
	require.False(t, table.Allows("REGIONAL_AM", "/admin/pages"))
}

func TestLoadConfigBypassOverride(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("BYPASS_RULES", "AUDITOR:/reports|/exports,SYSTEM_ADMIN:/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	table, err := cfg.BypassTable()
	require.NoError(t, err)
	require.True(t, table.Allows("AUDITOR", "/reports/monthly"))
	require.True(t, table.Allows("AUDITOR", "/exports"))
	require.False(t, table.Allows("AUDITOR", "/admin"))
	require.True(t, table.Allows("SYSTEM_ADMIN", "/anything"))
	// Defaults are replaced, not merged.
	require.False(t, table.Allows("REGIONAL_AM", "/dashboard"))
}

func TestLoadConfigRejectsMalformedBypassRules(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("BYPASS_RULES", "not-a-rule")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	_, err = cfg.BypassTable()
	require.Error(t, err)
}
