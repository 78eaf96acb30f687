package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ecoquest/backend/internal/domain"
)

const (
	// maxKeywordConfidence caps a single category before normalization.
	maxKeywordConfidence = 0.95
	// fallbackConfidence is assigned to every category when no keyword matches.
	// Five categories at 0.2 happen to sum to 1; the value is not normalized.
	fallbackConfidence = 0.2
)

// categoryKeywords drives the keyword scorer. "bottle" is shared by Plastic and Glass.
var categoryKeywords = map[domain.WasteCategory][]string{
	domain.Plastic: {"plastic", "bottle", "container", "packaging"},
	domain.Paper:   {"paper", "cardboard", "box", "newspaper"},
	domain.Metal:   {"metal", "can", "aluminum", "steel"},
	domain.Glass:   {"glass", "bottle", "jar"},
	domain.Organic: {"food", "waste", "organic", "vegetable", "fruit"},
}

var hazardLevels = map[domain.WasteCategory]domain.HazardLevel{
	domain.Plastic: domain.HazardMedium,
	domain.Paper:   domain.HazardLow,
	domain.Metal:   domain.HazardLow,
	domain.Glass:   domain.HazardMedium,
	domain.Organic: domain.HazardLow,
}

// Score estimates which waste category a free-text description (typically an
// image caption) is about. Keywords are matched as substrings of the
// lower-cased text. It never fails: empty text or text without any keyword
// yields the flat fallback distribution.
func Score(text string) domain.ClassificationResult {
	text = strings.ToLower(norm.NFKC.String(text))
	if strings.TrimSpace(text) == "" {
		return fallbackResult()
	}

	scores := make([]domain.CategoryScore, len(domain.ClassificationCategories))
	var total float64
	for i, category := range domain.ClassificationCategories {
		keywords := categoryKeywords[category]
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matched++
			}
		}
		confidence := min(float64(matched)/float64(len(keywords)), maxKeywordConfidence)
		total += confidence
		scores[i] = newCategoryScore(category, confidence)
	}

	if total == 0 {
		return fallbackResult()
	}
	for i := range scores {
		scores[i].Confidence /= total
	}
	return domain.ClassificationResult{Scores: scores}
}

func fallbackResult() domain.ClassificationResult {
	scores := make([]domain.CategoryScore, len(domain.ClassificationCategories))
	for i, category := range domain.ClassificationCategories {
		scores[i] = newCategoryScore(category, fallbackConfidence)
	}
	return domain.ClassificationResult{Scores: scores, IsFallback: true}
}

func newCategoryScore(category domain.WasteCategory, confidence float64) domain.CategoryScore {
	return domain.CategoryScore{
		Category:    category,
		Confidence:  confidence,
		Recyclable:  true,
		HazardLevel: hazardLevels[category],
	}
}

// CleanCaption drops repeated words (case-insensitively) from model output,
// keeping the first occurrence and its original casing.
func CleanCaption(text string) string {
	words := strings.Fields(text)
	seen := make(map[string]struct{}, len(words))
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, w)
	}
	return strings.Join(cleaned, " ")
}
