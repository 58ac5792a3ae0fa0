package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/concierge-services/concierge/internal/service"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &Config{
		Mailbox: MailboxConfig{
			Server:   "imap.gmail.com",
			Port:     993,
			Email:    "user@gmail.com",
			Password: "app-password",
			Folder:   "INBOX",
		},
		Services: []service.Record{
			{
				ID:         "metrogas",
				Name:       "Metrogas",
				Type:       service.TypeGas,
				SampleFrom: "noreply@metrogas.cl",
			},
		},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Mailbox.Server != "imap.gmail.com" {
		t.Errorf("server: got %q", loaded.Mailbox.Server)
	}
	if loaded.Mailbox.Email != "user@gmail.com" {
		t.Errorf("email: got %q", loaded.Mailbox.Email)
	}
	if len(loaded.Services) != 1 {
		t.Fatalf("got %d services, want 1", len(loaded.Services))
	}
	if loaded.Services[0].Type != service.TypeGas {
		t.Errorf("type: got %s", loaded.Services[0].Type)
	}
}

func TestSaveSetsRestrictivePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := Save(path, &Config{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions: got %04o, want 0600", perm)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	minimal := "mailbox:\n  server: imap.gmail.com\n  email: user@gmail.com\n  password: secret\n"
	if err := os.WriteFile(path, []byte(minimal), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mailbox.Port != 993 {
		t.Errorf("port: got %d, want 993", cfg.Mailbox.Port)
	}
	if cfg.Mailbox.Folder != "INBOX" {
		t.Errorf("folder: got %q, want INBOX", cfg.Mailbox.Folder)
	}
	if cfg.Options.RefreshMinutes != 30 {
		t.Errorf("refresh minutes: got %d, want 30", cfg.Options.RefreshMinutes)
	}
	if cfg.Options.ScanLimit != 100 {
		t.Errorf("scan limit: got %d, want 100", cfg.Options.ScanLimit)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "complete",
			cfg: Config{Mailbox: MailboxConfig{
				Server: "imap.gmail.com", Port: 993,
				Email: "u@g.com", Password: "pw",
			}},
			wantErr: false,
		},
		{
			name:    "missing server",
			cfg:     Config{Mailbox: MailboxConfig{Port: 993, Email: "u@g.com", Password: "pw"}},
			wantErr: true,
		},
		{
			name: "missing password",
			cfg: Config{Mailbox: MailboxConfig{
				Server: "imap.gmail.com", Port: 993, Email: "u@g.com",
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestAddServiceRejectsDuplicates(t *testing.T) {
	cfg := &Config{}

	rec := service.Record{ID: "metrogas", Name: "Metrogas"}
	if err := cfg.AddService(rec); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := cfg.AddService(rec); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if err := cfg.AddService(service.Record{Name: "Sin ID"}); err == nil {
		t.Error("empty id should be rejected")
	}
}

func TestRemoveService(t *testing.T) {
	cfg := &Config{Services: []service.Record{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
	}}

	if !cfg.RemoveService("a") {
		t.Error("existing id should be removed")
	}
	if cfg.RemoveService("a") {
		t.Error("second removal should report false")
	}
	if _, ok := cfg.ServiceByID("b"); !ok {
		t.Error("unrelated service should survive removal")
	}
}
