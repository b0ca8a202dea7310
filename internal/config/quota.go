package config

import (
	"fmt"
	"os"

	"qaforum/internal/models"

	"gopkg.in/yaml.v3"
)

// quotaFile is the on-disk shape of a quota table:
//
//	limits:
//	  student: {questions: 3, answers: 3}
//	  user:    {questions: 5, answers: 10}
//	  expert:  {questions: -1, answers: -1}
type quotaFile struct {
	Limits map[string]models.QuotaLimit `yaml:"limits"`
}

// LoadQuotaTable returns the default table when path is empty; otherwise the
// file replaces the defaults entirely.
func LoadQuotaTable(path string) (models.QuotaTable, error) {
	if path == "" {
		return models.DefaultQuotaTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quota file: %w", err)
	}
	return ParseQuotaTable(data)
}

// ParseQuotaTable decodes a YAML quota table and validates role names.
func ParseQuotaTable(data []byte) (models.QuotaTable, error) {
	var f quotaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse quota file: %w", err)
	}
	table := make(models.QuotaTable, len(f.Limits))
	for name, limit := range f.Limits {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("parse quota file: %w", err)
		}
		table[role] = limit
	}
	return table, nil
}
