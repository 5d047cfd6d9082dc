package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.TokenValidity != 168*time.Hour {
		t.Errorf("TokenValidity = %v, want 168h", cfg.TokenValidity)
	}
	if cfg.DBPath != filepath.Join("instance", "printflow.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.StorageBase != "storage" {
		t.Errorf("StorageBase = %q", cfg.StorageBase)
	}
	if cfg.Mail.Configured() {
		t.Error("default mail settings report as configured")
	}
}

func TestMailConfigured(t *testing.T) {
	tests := []struct {
		name string
		mail Mail
		want bool
	}{
		{
			name: "real settings",
			mail: Mail{Server: "smtp.campus.edu", Username: "lab", Sender: "lab@campus.edu"},
			want: true,
		},
		{
			name: "placeholder server",
			mail: Mail{Server: "smtp.example.com", Username: "lab", Sender: "lab@campus.edu"},
		},
		{
			name: "placeholder sender",
			mail: Mail{Server: "smtp.campus.edu", Username: "lab", Sender: "noreply@example.com"},
		},
		{
			name: "no username",
			mail: Mail{Server: "smtp.campus.edu", Sender: "lab@campus.edu"},
		},
		{
			name: "empty",
			mail: Mail{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mail.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PRINTFLOW_PORT", "8080")
	t.Setenv("STAFF_PASSWORD", "hunter2")
	t.Setenv("TOKEN_VALIDITY", "24h")
	t.Setenv("MAIL_SERVER", "smtp.campus.edu")

	cfg := Default()
	var file string
	applyEnv(cfg, &file)

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.StaffKey != "hunter2" {
		t.Errorf("StaffKey = %q", cfg.StaffKey)
	}
	if cfg.TokenValidity != 24*time.Hour {
		t.Errorf("TokenValidity = %v, want 24h", cfg.TokenValidity)
	}
	if cfg.Mail.Server != "smtp.campus.edu" {
		t.Errorf("Mail.Server = %q", cfg.Mail.Server)
	}
}

func TestApplyEnv_BadValuesIgnored(t *testing.T) {
	t.Setenv("PRINTFLOW_PORT", "not-a-port")
	t.Setenv("TOKEN_VALIDITY", "soon")

	cfg := Default()
	var file string
	applyEnv(cfg, &file)

	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want default 5000", cfg.Port)
	}
	if cfg.TokenValidity != 168*time.Hour {
		t.Errorf("TokenValidity = %v, want default 168h", cfg.TokenValidity)
	}
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printflow.toml")
	content := `
minimum_charge = "5.00"
denylist = ["/srv/secrets"]

[printers.ender3]
rate_g = 0.05
type = "Filament"
display_name = "Ender 3"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := Default()
	if err := mergeFile(cfg, path); err != nil {
		t.Fatalf("mergeFile() error = %v", err)
	}

	if cfg.MinimumCharge != "5.00" {
		t.Errorf("MinimumCharge = %q, want 5.00", cfg.MinimumCharge)
	}
	if len(cfg.Denylist) != 1 || cfg.Denylist[0] != "/srv/secrets" {
		t.Errorf("Denylist = %v", cfg.Denylist)
	}
	p, ok := cfg.Printers["ender3"]
	if !ok {
		t.Fatalf("printer ender3 missing: %v", cfg.Printers)
	}
	if p.RateGram != 0.05 || p.Type != "Filament" || p.DisplayName != "Ender 3" {
		t.Errorf("printer = %+v", p)
	}
}

func TestMergeFile_Missing(t *testing.T) {
	cfg := Default()
	if err := mergeFile(cfg, filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("mergeFile() on a missing file succeeded")
	}
}
