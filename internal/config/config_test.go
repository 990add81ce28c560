package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:                  "8090",
		Env:                   "production",
		APIKey:                "test-key",
		EMRBaseURL:            "https://emr.example.org/openmrs",
		EMRUsername:           "bridge",
		EMRPassword:           "secret",
		EMRTimeoutSeconds:     30,
		VisitTypeID:           "vt-1",
		NoteEncounterTypeID:   "net-1",
		OrderEncounterTypeID:  "oet-1",
		ClinicalNoteConceptID: "cnc-1",
		DrugOrderTypeID:       "dot-1",
		CareSettingID:         "cs-1",
		DefaultLocationID:     "loc-1",
		DefaultProviderID:     "prov-1",
	}
}

func TestConfig_Validate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.EMRBaseURL = "" }},
		{"missing username", func(c *Config) { c.EMRUsername = "" }},
		{"missing password", func(c *Config) { c.EMRPassword = "" }},
		{"missing api key in production", func(c *Config) { c.APIKey = "" }},
		{"missing visit type", func(c *Config) { c.VisitTypeID = "" }},
		{"missing note encounter type", func(c *Config) { c.NoteEncounterTypeID = "" }},
		{"missing order encounter type", func(c *Config) { c.OrderEncounterTypeID = "" }},
		{"missing clinical note concept", func(c *Config) { c.ClinicalNoteConceptID = "" }},
		{"missing drug order type", func(c *Config) { c.DrugOrderTypeID = "" }},
		{"missing care setting", func(c *Config) { c.CareSettingID = "" }},
		{"missing default location", func(c *Config) { c.DefaultLocationID = "" }},
		{"missing default provider", func(c *Config) { c.DefaultProviderID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfig_Validate_APIKeyOptionalInDev(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "development"
	cfg.APIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_EMRTimeout(t *testing.T) {
	cfg := validConfig()
	if got := cfg.EMRTimeout(); got != 30*time.Second {
		t.Errorf("EMRTimeout = %v, want 30s", got)
	}
}

func TestConfig_Load_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port == "" {
		t.Error("expected default port")
	}
	if cfg.EMRTimeoutSeconds <= 0 {
		t.Error("expected default EMR timeout")
	}
}
