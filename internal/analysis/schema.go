package analysis

import "fmt"

// Field names of the structured model output.
const (
	FieldFallback    = "fallback"
	FieldCoachAdvice = "coachAdvice"
	FieldFood        = "food"
	FieldBenefits    = "benefits"
	FieldCalories    = "calories"
	FieldCarbs       = "carbs"
	FieldSugar       = "sugar"
	FieldDrawbacks   = "drawbacks"
	FieldNutrients   = "nutrients"
)

// Schema is the JSON Schema subset understood by both the Claude tool
// input_schema and the Ollama structured-output format parameter.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
}

// requiredFields lists every field except fallback, in output order.
var requiredFields = []string{
	FieldCoachAdvice,
	FieldFood,
	FieldBenefits,
	FieldCalories,
	FieldCarbs,
	FieldSugar,
	FieldDrawbacks,
	FieldNutrients,
}

// ResponseSchema describes the analysis output. Only the coachAdvice guidance
// varies between calls, by the persona name.
func ResponseSchema(persona string) *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			FieldFallback: {
				Type:        "string",
				Description: fmt.Sprintf("Set to %q when the image contains no food. Leave empty otherwise.", FallbackMessage),
			},
			FieldCoachAdvice: {
				Type:        "string",
				Description: fmt.Sprintf("Advice about this food in the voice of %s, at most 30 words.", persona),
			},
			FieldFood: {
				Type:        "string",
				Description: "Short description of the food in the image.",
			},
			FieldBenefits:  listOf("Positive effects of eating this food."),
			FieldCalories:  amount("Estimated calories (kcal)."),
			FieldCarbs:     amount("Estimated carbohydrates in grams."),
			FieldSugar:     amount("Estimated sugar in grams."),
			FieldDrawbacks: listOf("Negative effects of eating this food, each with a healthier alternative."),
			FieldNutrients: listOf(`Key nutrients, each written as "nutrient: effect on the body — score" with a score from 1 to 100.`),
		},
		Required: append([]string(nil), requiredFields...),
	}
}

// Every list field carries between minListItems and maxListItems entries.
const (
	minListItems = 2
	maxListItems = 3
)

func listOf(description string) *Schema {
	lo, hi := minListItems, maxListItems
	return &Schema{
		Type:        "array",
		Description: description,
		Items:       &Schema{Type: "string"},
		MinItems:    &lo,
		MaxItems:    &hi,
	}
}

func amount(description string) *Schema {
	zero := 0.0
	return &Schema{
		Type:        "number",
		Description: description,
		Minimum:     &zero,
	}
}
