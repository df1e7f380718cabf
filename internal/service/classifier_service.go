package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
)

// Classifier assigns a scan category to a raw token. It is total: any
// token, including garbage, classifies to something, with badge as the
// fallback.
type Classifier struct {
	prefixes repository.PrefixRepository
	assets   repository.AssetRepository
}

// NewClassifier constructs the classifier.
func NewClassifier(prefixes repository.PrefixRepository, assets repository.AssetRepository) *Classifier {
	return &Classifier{prefixes: prefixes, assets: assets}
}

// directoryProbeOrder fixes the tie-break when a token matches no prefix:
// exact-id probes hit radios before batteries before tools.
var directoryProbeOrder = []domain.AssetCategory{
	domain.CategoryRadio,
	domain.CategoryBattery,
	domain.CategoryTool,
}

// Identify classifies a raw scan token.
//
// Rules, in order: empty after trimming is a badge; a digit-led token is a
// badge unconditionally; a letter-led token is matched longest-prefix-first
// against the prefix table (reloaded on every call so administrative edits
// take effect without a restart); failing that, the asset directory is
// probed for an exact id; failing that, badge.
func (c *Classifier) Identify(ctx context.Context, token string) domain.ScanCategory {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ScanBadge
	}

	first := []rune(token)[0]
	if unicode.IsDigit(first) {
		return domain.ScanBadge
	}
	if !unicode.IsLetter(first) {
		return domain.ScanBadge
	}

	if category, ok := c.matchPrefix(ctx, token); ok {
		return category
	}

	for _, category := range directoryProbeOrder {
		if _, err := c.assets.Get(ctx, category, token); err == nil {
			return scanCategoryFor(category)
		}
	}

	return domain.ScanBadge
}

func (c *Classifier) matchPrefix(ctx context.Context, token string) (domain.ScanCategory, bool) {
	rules, err := c.prefixes.List(ctx)
	if err != nil || len(rules) == 0 {
		return "", false
	}

	// Longest prefix wins so overlapping rules such as "WV" and "W"
	// disambiguate deterministically.
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Prefix) > len(rules[j].Prefix)
	})

	upper := strings.ToUpper(token)
	for _, rule := range rules {
		if rule.Prefix == "" {
			continue
		}
		if strings.HasPrefix(upper, strings.ToUpper(rule.Prefix)) {
			return scanCategoryFor(rule.Category), true
		}
	}
	return "", false
}

func scanCategoryFor(category domain.AssetCategory) domain.ScanCategory {
	switch category {
	case domain.CategoryBattery:
		return domain.ScanBattery
	case domain.CategoryTool:
		return domain.ScanTool
	default:
		return domain.ScanRadio
	}
}
