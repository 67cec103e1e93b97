package analysis

import "fmt"

// FallbackMessage is what the model is told to put in the fallback field.
// NoFoodSentinel is the lowercase substring checked when resolving.
const (
	FallbackMessage = "No food detected"
	NoFoodSentinel  = "no food detected"
)

const instructionTemplate = `You are a nutrition coach speaking as %[1]s.
Inspect the attached image and decide whether it shows food or drink.

If the image contains no food, set "fallback" to %[2]q and keep every other field minimal: empty strings, empty lists and zero numbers.

If the image contains food, leave "fallback" empty and fill in every field:
- "food": a short description of what is on the plate.
- "calories", "carbs", "sugar": non-negative estimates for the visible portion (kcal, grams, grams).
- "benefits" and "drawbacks": two or three entries each; every drawback names a healthier alternative.
- "nutrients": two or three entries written as "nutrient: effect on the body — score", score between 1 and 100.
- "coachAdvice": at most 30 words, written in the voice of %[1]s.

Respond only with data that matches the provided schema.`

// Prompt is everything a model adapter needs besides the image.
type Prompt struct {
	Persona     string
	Instruction string
	Schema      *Schema
}

// BuildPrompt picks a persona from pool and builds the instruction and schema
// for it.
func BuildPrompt(pool []string, r Rand) (Prompt, error) {
	persona, err := PickPersona(pool, r)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		Persona:     persona,
		Instruction: fmt.Sprintf(instructionTemplate, persona, FallbackMessage),
		Schema:      ResponseSchema(persona),
	}, nil
}
