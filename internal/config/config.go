package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and injected into every component
// constructor. Business logic never reads the environment directly.
type Config struct {
	Port   string `mapstructure:"PORT"`
	Env    string `mapstructure:"ENV"`
	APIKey string `mapstructure:"API_KEY"`

	EMRBaseURL        string `mapstructure:"EMR_BASE_URL"`
	EMRUsername       string `mapstructure:"EMR_USERNAME"`
	EMRPassword       string `mapstructure:"EMR_PASSWORD"`
	EMRTimeoutSeconds int    `mapstructure:"EMR_TIMEOUT_SECONDS"`

	// EMR-internal reference identifiers. The EMR addresses encounter types,
	// concepts, order types, care settings, locations and providers by UUID;
	// these are installation-specific and must be configured per deployment.
	VisitTypeID           string `mapstructure:"VISIT_TYPE_ID"`
	NoteEncounterTypeID   string `mapstructure:"NOTE_ENCOUNTER_TYPE_ID"`
	OrderEncounterTypeID  string `mapstructure:"ORDER_ENCOUNTER_TYPE_ID"`
	ClinicalNoteConceptID string `mapstructure:"CLINICAL_NOTE_CONCEPT_ID"`
	DrugOrderTypeID       string `mapstructure:"DRUG_ORDER_TYPE_ID"`
	CareSettingID         string `mapstructure:"CARE_SETTING_ID"`
	DefaultLocationID     string `mapstructure:"DEFAULT_LOCATION_ID"`
	DefaultProviderID     string `mapstructure:"DEFAULT_PROVIDER_ID"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8090")
	v.SetDefault("ENV", "development")
	v.SetDefault("EMR_TIMEOUT_SECONDS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("API_KEY")
	v.BindEnv("EMR_BASE_URL")
	v.BindEnv("EMR_USERNAME")
	v.BindEnv("EMR_PASSWORD")
	v.BindEnv("EMR_TIMEOUT_SECONDS")
	v.BindEnv("VISIT_TYPE_ID")
	v.BindEnv("NOTE_ENCOUNTER_TYPE_ID")
	v.BindEnv("ORDER_ENCOUNTER_TYPE_ID")
	v.BindEnv("CLINICAL_NOTE_CONCEPT_ID")
	v.BindEnv("DRUG_ORDER_TYPE_ID")
	v.BindEnv("CARE_SETTING_ID")
	v.BindEnv("DEFAULT_LOCATION_ID")
	v.BindEnv("DEFAULT_PROVIDER_ID")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) EMRTimeout() time.Duration {
	return time.Duration(c.EMRTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run. The EMR connection
// and its reference identifiers are always required; the inbound API key may
// only be omitted in development.
func (c *Config) Validate() error {
	if c.EMRBaseURL == "" {
		return fmt.Errorf("EMR_BASE_URL is required")
	}
	if c.EMRUsername == "" || c.EMRPassword == "" {
		return fmt.Errorf("EMR_USERNAME and EMR_PASSWORD are required")
	}
	if !c.IsDev() && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required when ENV is not development")
	}

	refs := []struct {
		key, val string
	}{
		{"VISIT_TYPE_ID", c.VisitTypeID},
		{"NOTE_ENCOUNTER_TYPE_ID", c.NoteEncounterTypeID},
		{"ORDER_ENCOUNTER_TYPE_ID", c.OrderEncounterTypeID},
		{"CLINICAL_NOTE_CONCEPT_ID", c.ClinicalNoteConceptID},
		{"DRUG_ORDER_TYPE_ID", c.DrugOrderTypeID},
		{"CARE_SETTING_ID", c.CareSettingID},
		{"DEFAULT_LOCATION_ID", c.DefaultLocationID},
		{"DEFAULT_PROVIDER_ID", c.DefaultProviderID},
	}
	for _, r := range refs {
		if r.val == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	return nil
}
