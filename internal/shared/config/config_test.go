package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Fraud.MinGapDays != 7 {
		t.Errorf("expected default min gap 7, got %d", cfg.Fraud.MinGapDays)
	}
	if cfg.Fraud.MaxHospitals != 2 {
		t.Errorf("expected default max hospitals 2, got %d", cfg.Fraud.MaxHospitals)
	}
	if cfg.Fraud.MinScoreToStore != 0.3 {
		t.Errorf("expected default storage threshold 0.3, got %v", cfg.Fraud.MinScoreToStore)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("FRAUD_MIN_GAP_DAYS", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Fraud.MinGapDays != 14 {
		t.Errorf("expected min gap 14, got %d", cfg.Fraud.MinGapDays)
	}
}

func TestLimitOverrides(t *testing.T) {
	t.Setenv("FRAUD_LIMIT_HEART_SURGERY", "2")
	t.Setenv("FRAUD_LIMIT_LEG_AMPUTATION", "notanumber")
	t.Setenv("FRAUD_LIMIT_BRAIN_SURGERY", "-1")

	overrides := LimitOverrides()

	if overrides["heart_surgery"] != 2 {
		t.Errorf("expected heart_surgery override 2, got %d", overrides["heart_surgery"])
	}
	if _, ok := overrides["leg_amputation"]; ok {
		t.Error("non-numeric override must be ignored")
	}
	if _, ok := overrides["brain_surgery"]; ok {
		t.Error("negative override must be ignored")
	}
}
