package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/internal/dataprocessing"
	"flightops/pkg/contracts/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flightops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, SourceSheets, cfg.Source.Kind)
	assert.Equal(t, "Pre-Post Flight Data", cfg.Source.SpreadsheetName)
	assert.Equal(t, "credentials.json", cfg.Source.CredentialsFile)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "filtered_flight_data.csv", cfg.Export.FileName)
	assert.Equal(t, "Kamet", cfg.Fleets.Fallback)
	require.Len(t, cfg.Fleets.Rules, 1)
	assert.Equal(t, "trishul", cfg.Fleets.Rules[0].Keyword)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
  read_timeout: 5s
source:
  kind: CSV
  file_path: /data/flights.csv
cache:
  ttl: 2m
fleets:
  rules:
    - keyword: trishul
      fleet: Trishul
    - keyword: kamet
      fleet: Kamet
  fallback: ""
`)

	t.Setenv("FLIGHTOPS_SERVER_PORT", "7070")
	t.Setenv("FLIGHTOPS_CACHE_TTL", "30s")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout, "file overrides default")
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "untouched default survives")
	assert.Equal(t, SourceCSV, cfg.Source.Kind, "kind is normalized")
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Len(t, cfg.Fleets.Rules, 2)

	classifier, err := cfg.FleetClassifier()
	require.NoError(t, err)
	assert.Equal(t, domain.FleetUnclassified, classifier.Classify("Nanda-01"))
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "server: [unclosed"},
		{name: "bad port", content: "server:\n  port: 70000\n"},
		{name: "unknown source", content: "source:\n  kind: ftp\n"},
		{name: "file source without path", content: "source:\n  kind: xlsx\n"},
		{name: "negative ttl", content: "cache:\n  ttl: -1s\n"},
		{name: "duplicate fleet keyword", content: "fleets:\n  rules:\n    - {keyword: a, fleet: A}\n    - {keyword: a, fleet: B}\n"},
		{name: "reserved fleet", content: "fleets:\n  rules:\n    - {keyword: a, fleet: Unclassified}\n"},
		{name: "bad schedule", content: "export:\n  schedule: every now and then\n"},
		{name: "bad export format", content: "export:\n  format: pdf\n"},
		{name: "bad log level", content: "logging:\n  level: loud\n"},
		{name: "bad env value", content: "", env: map[string]string{"FLIGHTOPS_SERVER_PORT": "eighty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetConfigFilePath_Explicit(t *testing.T) {
	t.Setenv(ConfigFileEnv, "/etc/flightops/custom.yaml")
	assert.Equal(t, "/etc/flightops/custom.yaml", getConfigFilePath())
}

func TestDefault_FleetClassifierMatchesBuiltin(t *testing.T) {
	classifier, err := Default().FleetClassifier()
	require.NoError(t, err)

	builtin := dataprocessing.DefaultFleetClassifier()
	for _, name := range []string{"Trishul-07", "Kamet-02", "Other"} {
		assert.Equal(t, builtin.Classify(name), classifier.Classify(name))
	}
}
