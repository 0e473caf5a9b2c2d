package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// resolveVault reads one value out of Vault for a ${VAULT:path#key}
// reference, typically the execution target password. Address and token come
// from the standard VAULT_ADDR / VAULT_TOKEN environment.
func resolveVault(ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("malformed Vault reference %q: want path#key", ref)
	}

	client, err := vaultClient()
	if err != nil {
		return "", err
	}

	secret, err := client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("reading Vault path %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("Vault path %s holds no secret", path)
	}

	fields := secret.Data
	// KV v2 nests the payload one level down
	if nested, ok := fields["data"].(map[string]any); ok {
		fields = nested
	}
	val, ok := fields[key].(string)
	if !ok {
		return "", fmt.Errorf("Vault path %s has no string field %q", path, key)
	}
	return val, nil
}

func vaultClient() (*api.Client, error) {
	addr, token := os.Getenv("VAULT_ADDR"), os.Getenv("VAULT_TOKEN")
	if addr == "" || token == "" {
		return nil, fmt.Errorf("Vault references require VAULT_ADDR and VAULT_TOKEN to be set")
	}
	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(token)
	return client, nil
}
