package policy

import (
	"embed"
	"fmt"
	"os"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"auth-backend/internal/config"
)

//go:embed assets/model.conf assets/policy.csv
var assets embed.FS

// NewEnforcer loads the model and rule set once. Empty paths fall back to the
// embedded defaults; the two may be mixed.
func NewEnforcer(cfg config.PolicyConfig) (*casbin.SyncedEnforcer, error) {
	if cfg.ModelPath != "" && cfg.PolicyPath != "" {
		e, err := casbin.NewSyncedEnforcer(cfg.ModelPath, cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load policy %s with model %s: %w", cfg.PolicyPath, cfg.ModelPath, err)
		}
		return e, nil
	}

	modelText, err := readAsset(cfg.ModelPath, "assets/model.conf")
	if err != nil {
		return nil, err
	}
	policyText, err := readAsset(cfg.PolicyPath, "assets/policy.csv")
	if err != nil {
		return nil, err
	}
	return NewEnforcerFromStrings(modelText, policyText)
}

// NewEnforcerFromStrings builds an enforcer from in-memory model and rule
// text in casbin's native formats.
func NewEnforcerFromStrings(modelText, policyText string) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(policyText))
	if err != nil {
		return nil, fmt.Errorf("load policy rules: %w", err)
	}
	return e, nil
}

func readAsset(path, embedded string) (string, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(b), nil
	}
	b, err := assets.ReadFile(embedded)
	if err != nil {
		return "", fmt.Errorf("read embedded %s: %w", embedded, err)
	}
	return string(b), nil
}
