package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// TemplateAccountDir is the placeholder folder copied when provisioning
// a new account. It never takes part in a run.
const TemplateAccountDir = "TEMPLATE_ACCOUNT"

// AccountSettings is the per-account settings.json.
type AccountSettings struct {
	AccountName string `json:"account_name"`
	Niche       string `json:"niche"`
	StyleKey    string `json:"style_key"`
	DailyPosts  int    `json:"daily_posts"`
}

// LoadAccountSettings reads settings.json from an account folder.
func LoadAccountSettings(accountDir string) (AccountSettings, error) {
	data, err := os.ReadFile(filepath.Join(accountDir, "settings.json"))
	if err != nil {
		return AccountSettings{}, err
	}
	var settings AccountSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return AccountSettings{}, fmt.Errorf("parse settings.json: %w", err)
	}
	return settings, nil
}

// ListAccountDirs returns the account folders under root, ignoring
// TEMPLATE_ACCOUNT and plain files. A missing root yields an empty
// list, not an error.
func ListAccountDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == TemplateAccountDir {
			continue
		}
		dirs = append(dirs, filepath.Join(root, entry.Name()))
	}
	return dirs, nil
}
