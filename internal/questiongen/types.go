package questiongen

import "github.com/abhisek/borderdrill/internal/catalog"

// Question is one officer question ready to be asked.
type Question struct {
	// Text is the English question the officer asks.
	Text string `json:"question"`

	// Translated is the Japanese rendering shown as a hint.
	Translated string `json:"questionJa"`

	// SampleAnswer is a model answer consistent with catalog.Scenario.
	SampleAnswer string `json:"sampleAnswer"`

	// Keywords are always the source template's keywords.
	Keywords []string `json:"keywords"`

	TemplateID int    `json:"questionId"`
	PersonaID  string `json:"persona"`
}

// NextInput holds the exclusion state for a generation request.
type NextInput struct {
	// UsedTemplateIDs are templates already asked this session.
	UsedTemplateIDs map[int]bool

	// PreviousQuestions are question texts already asked. Listed in the
	// prompt as topics to avoid, and any template whose base question
	// equals one of them is excluded.
	PreviousQuestions []string

	// Persona pins the officer. When nil the Selector picks one.
	Persona *catalog.Persona
}
