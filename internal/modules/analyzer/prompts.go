package analyzer

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptCatalogYAML []byte

type promptSpec struct {
	SchemaName string `yaml:"schema_name"`
	System     string `yaml:"system"`
}

type promptCatalog struct {
	Version int                   `yaml:"version"`
	Prompts map[string]promptSpec `yaml:"prompts"`
}

const (
	promptDay     = "day"
	promptWeek    = "week"
	promptMonth   = "month"
	promptJournal = "journal"
	promptQuiz    = "quiz"
	promptCards   = "cards"
	promptChat    = "chat"
)

func loadPromptCatalog(data []byte) (promptCatalog, error) {
	var cat promptCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return promptCatalog{}, fmt.Errorf("parse prompt catalog: %w", err)
	}
	for _, name := range []string{promptDay, promptWeek, promptMonth, promptJournal, promptQuiz, promptCards, promptChat} {
		spec, ok := cat.Prompts[name]
		if !ok || spec.System == "" || spec.SchemaName == "" {
			return promptCatalog{}, fmt.Errorf("prompt catalog missing %q", name)
		}
	}
	return cat, nil
}

func stringSchema() map[string]any { return map[string]any{"type": "string"} }

func intSchema() map[string]any { return map[string]any{"type": "integer"} }

func stringListSchema() map[string]any {
	return map[string]any{"type": "array", "items": stringSchema()}
}

func enumSchema(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func objectSchema(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func scoreProps() map[string]any {
	return map[string]any{
		"happiness_score":  intSchema(),
		"sadness_score":    intSchema(),
		"anxiety_score":    intSchema(),
		"energy_score":     intSchema(),
		"loneliness_score": intSchema(),
		"overall_wellness": intSchema(),
	}
}

func summarySchema(withRecommendations bool) map[string]any {
	props := scoreProps()
	props["short_summary"] = stringSchema()
	props["detailed_summary"] = stringSchema()
	props["dominant_theme"] = stringSchema()
	props["insights"] = stringListSchema()
	props["achievements"] = stringListSchema()
	props["challenges"] = stringListSchema()
	if withRecommendations {
		props["recommendations"] = stringListSchema()
	}
	return objectSchema(props)
}

func journalSchema() map[string]any {
	return objectSchema(map[string]any{
		"summary":    stringSchema(),
		"mood_emoji": stringSchema(),
		"tags":       stringListSchema(),
	})
}

func quizSchema() map[string]any {
	question := objectSchema(map[string]any{
		"type":        enumSchema("text", "multiple_choice", "scale", "emoji"),
		"question":    stringSchema(),
		"options":     stringListSchema(),
		"min":         intSchema(),
		"max":         intSchema(),
		"placeholder": stringSchema(),
	})
	return objectSchema(map[string]any{
		"questions": map[string]any{"type": "array", "items": question},
	})
}

func cardsSchema() map[string]any {
	card := objectSchema(map[string]any{
		"title":     stringSchema(),
		"content":   stringSchema(),
		"card_type": enumSchema("growth", "compassion", "action", "insight"),
	})
	return objectSchema(map[string]any{
		"cards": map[string]any{"type": "array", "items": card},
	})
}

func chatSchema() map[string]any {
	return objectSchema(map[string]any{"reply": stringSchema()})
}
