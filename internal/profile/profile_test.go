package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDefaults(t *testing.T) {
	p, err := FromEnv("test")
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Mode)
	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, 3, p.QueryBudget)
	assert.Equal(t, 3, p.RotationWindow)
	assert.InDelta(t, 0.65, p.ComplexityThreshold, 1e-9)
	assert.Equal(t, 50, p.GovernorWindow)
	assert.False(t, p.IsLLMEnabled())
	assert.NotEmpty(t, p.DSN, "sqlite DSN should be derived from data dir")
}

func TestProfileFromEnvOverrides(t *testing.T) {
	t.Setenv("SOLACE_MODE", "prod")
	t.Setenv("SOLACE_PORT", "9000")
	t.Setenv("SOLACE_QUERY_BUDGET", "2")
	t.Setenv("SOLACE_COMPLEXITY_THRESHOLD", "0.8")
	t.Setenv("SOLACE_LLM_ENABLED", "true")
	t.Setenv("SOLACE_LLM_API_KEY", "sk-test")

	p, err := FromEnv("test")
	require.NoError(t, err)

	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 9000, p.Port)
	assert.Equal(t, 2, p.QueryBudget)
	assert.InDelta(t, 0.8, p.ComplexityThreshold, 1e-9)
	assert.True(t, p.IsLLMEnabled())
	assert.False(t, p.IsDev())
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{
			name:   "unknown mode falls back to demo",
			mutate: func(p *Profile) { p.Mode = "staging" },
		},
		{
			name:    "unsupported driver rejected",
			mutate:  func(p *Profile) { p.Driver = "mysql" },
			wantErr: true,
		},
		{
			name:    "postgres requires dsn",
			mutate:  func(p *Profile) { p.Driver = "postgres"; p.DSN = "" },
			wantErr: true,
		},
		{
			name:    "empty catalog path rejected",
			mutate:  func(p *Profile) { p.CatalogPath = "" },
			wantErr: true,
		},
		{
			name:    "complexity threshold out of range",
			mutate:  func(p *Profile) { p.ComplexityThreshold = 1.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{
				Mode:                "dev",
				Data:                t.TempDir(),
				Driver:              "sqlite",
				CatalogPath:         "catalog.yaml",
				ComplexityThreshold: 0.65,
			}
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
