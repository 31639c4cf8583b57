package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/savcinema/voicereview-service/internal/client"
)

// commandContext carries the shared flags and builds API clients on demand.
type commandContext struct {
	serverFlag *string
	tokenFlag  *string
}

func newCommandContext(serverFlag, tokenFlag *string) *commandContext {
	return &commandContext{serverFlag: serverFlag, tokenFlag: tokenFlag}
}

// apiClient builds a base client carrying whichever token is available: the
// --token flag first, then the saved login.
func (c *commandContext) apiClient() *client.Client {
	api := client.New(*c.serverFlag)
	if *c.tokenFlag != "" {
		api.Token = *c.tokenFlag
	} else if saved, err := loadToken(); err == nil {
		api.Token = saved
	}
	return api
}

func (c *commandContext) moderation() *client.ModerationClient {
	return client.NewModerationClient(c.apiClient(), newCommandPlayer())
}

func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voicereview", "token"), nil
}

func loadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func saveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
