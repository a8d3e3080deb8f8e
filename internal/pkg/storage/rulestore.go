package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/wicketwise/wicketwise/internal/pkg/models"
)

var _ RuleStorage = (*FileRuleStore)(nil)

// FileRuleStore keeps the user rule set in one flat JSON file. A missing
// file means first run and yields the default rules.
type FileRuleStore struct {
	mu   sync.Mutex
	path string
}

func NewFileRuleStore(path string) *FileRuleStore {
	return &FileRuleStore{path: path}
}

func (s *FileRuleStore) GetRules(_ context.Context) ([]models.UserRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.DefaultRules(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []models.UserRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return rules, nil
}

func (s *FileRuleStore) SaveRules(_ context.Context, rules []models.UserRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace rules file: %w", err)
	}
	return nil
}
