package analysis

// Result is either a FallbackResult or a FoodResult.
type Result interface {
	isResult()
}

// FallbackResult is returned when the model reports that the image has no food.
type FallbackResult struct {
	Fallback string `json:"fallback"`
}

// FoodResult is a fully validated nutrition analysis.
type FoodResult struct {
	CoachAdvice string   `json:"coachAdvice"`
	Food        string   `json:"food"`
	Benefits    []string `json:"benefits"`
	Calories    float64  `json:"calories"`
	Carbs       float64  `json:"carbs"`
	Sugar       float64  `json:"sugar"`
	Drawbacks   []string `json:"drawbacks"`
	Nutrients   []string `json:"nutrients"`
	Persona     string   `json:"persona"`
}

func (FallbackResult) isResult() {}
func (FoodResult) isResult()     {}
