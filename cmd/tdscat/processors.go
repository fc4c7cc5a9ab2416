package main

import (
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-tds/pkg/processors"
)

// ProcessorManager manages data processors for CLI
type ProcessorManager struct {
	chain *processors.Chain
}

// NewProcessorManager creates a new processor manager
func NewProcessorManager() *ProcessorManager {
	return &ProcessorManager{
		chain: processors.NewChain(),
	}
}

// AddFromConfig appends processors declared in the config file
func (pm *ProcessorManager) AddFromConfig(configs []processors.Config) error {
	for _, cfg := range configs {
		p, err := processors.DefaultFactory.Create(cfg)
		if err != nil {
			return fmt.Errorf("failed to create processor %s: %w", cfg.Type, err)
		}
		pm.chain.Add(p)
	}
	return nil
}

// AddMaskProcessor adds field masking processor from CLI flag
// Format: --mask email,phone,card
func (pm *ProcessorManager) AddMaskProcessor(maskFields []string) {
	fieldsToMask := make(map[string]processors.MaskPattern)
	for _, field := range maskFields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		// Определяем паттерн маскирования по имени поля
		fieldsToMask[field] = detectMaskPattern(field)
	}

	if len(fieldsToMask) > 0 {
		pm.chain.Add(processors.NewFieldMasker(fieldsToMask))
	}
}

// AddColumnFilter adds column projection from CLI flag
// Format: --columns id,name
func (pm *ProcessorManager) AddColumnFilter(columns []string) {
	if len(columns) > 0 {
		pm.chain.Add(processors.NewColumnFilter(columns...))
	}
}

// Chain returns the assembled chain
func (pm *ProcessorManager) Chain() *processors.Chain {
	return pm.chain
}

// detectMaskPattern выбирает паттерн маскирования по имени колонки
func detectMaskPattern(fieldName string) processors.MaskPattern {
	lower := strings.ToLower(fieldName)

	switch {
	case strings.Contains(lower, "email"):
		return processors.MaskPartial
	case strings.Contains(lower, "phone") || strings.Contains(lower, "mobile"):
		return processors.MaskMiddle
	case strings.Contains(lower, "card") || strings.Contains(lower, "credit"):
		return processors.MaskFirst2Last2
	case strings.Contains(lower, "passport") || strings.Contains(lower, "ssn"):
		return processors.MaskStars
	default:
		return processors.MaskPartial
	}
}
