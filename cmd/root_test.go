package cmd

import "testing"

func TestCredentialEnvBindings(t *testing.T) {
	t.Setenv("ADZUNA_APP_ID", "app-id-1")
	t.Setenv("ADZUNA_APP_KEY_FILE", "/run/secrets/adzuna")
	t.Setenv("HH_TOKEN_FILE", "/run/secrets/hh")

	creds, err := getCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if creds.AdzunaAppID != "app-id-1" {
		t.Fatalf("expected app id from environment, got %q", creds.AdzunaAppID)
	}
	if creds.AdzunaAppKeyFile != "/run/secrets/adzuna" {
		t.Fatalf("expected key file from environment, got %q", creds.AdzunaAppKeyFile)
	}
	if creds.HHTokenFile != "/run/secrets/hh" {
		t.Fatalf("expected token file from environment, got %q", creds.HHTokenFile)
	}
}

func TestGetCredentialsDefaultsToEmpty(t *testing.T) {
	creds, err := getCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds == nil {
		t.Fatal("expected empty credentials, got nil")
	}
}
