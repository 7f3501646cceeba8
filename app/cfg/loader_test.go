package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		SourcesDir:         "./sources",
		Port:               "8080",
		OutputPath:         "./output/results.json",
		DBPath:             "./data/records.db",
		SourceWorkers:      2,
		ContentMaxLen:      4000,
		FetchTimeout:       10,
		PageTimeout:        30,
		CourtesyDelay:      1000,
		AttachmentWorkers:  4,
		AttachmentTimeout:  10,
		AttachmentMaxBytes: 5242880,
		AttachmentMaxPages: 3,
		UserAgent:          "Test Agent",
		APIAccessKey:       "test-key",
		Timezone:           "Asia/Taipei",
		Debug:              true,
		Version:            "test-version",
	}

	if cfg.SourcesDir != "./sources" {
		t.Errorf("Expected sources dir './sources', got '%s'", cfg.SourcesDir)
	}
	if cfg.SourceWorkers != 2 {
		t.Errorf("Expected 2 source workers, got %d", cfg.SourceWorkers)
	}
	if cfg.ContentMaxLen != 4000 {
		t.Errorf("Expected content max length 4000, got %d", cfg.ContentMaxLen)
	}
	if cfg.AttachmentMaxBytes != 5242880 {
		t.Errorf("Expected attachment ceiling 5242880, got %d", cfg.AttachmentMaxBytes)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("Asia/Taipei"); err != nil {
		t.Errorf("Expected valid timezone to apply, got %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got %v", err)
	}
}
