// Package catalog holds the fixed interview question templates and officer
// personas. Everything here is immutable after package initialisation.
package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// QuestionTemplate is one commonly asked border-control question. The
// model paraphrases BaseQuestion; Keywords are what a grader looks for.
type QuestionTemplate struct {
	ID           int      `json:"id"`
	Topic        string   `json:"topic"` // Japanese label shown to the learner
	TopicEN      string   `json:"topicEn"`
	BaseQuestion string   `json:"baseQuestion"`
	Keywords     []string `json:"keywords"`
}

// Tone is the register an officer persona speaks in.
type Tone string

const (
	ToneFriendly Tone = "friendly"
	ToneNeutral  Tone = "neutral"
	ToneStrict   Tone = "strict"
)

// Instruction is the phrase placed in a generation prompt for this tone.
func (t Tone) Instruction() string {
	switch t {
	case ToneFriendly:
		return "friendly and polite"
	case ToneStrict:
		return "strict and demanding"
	default:
		return "professional and neutral"
	}
}

// Persona is an immigration officer character.
type Persona struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Tone        Tone   `json:"tone"`
}

// Scenario is the traveler profile every generated question and sample
// answer must stay consistent with.
const Scenario = "The traveler is a Japanese software engineer flying alone from Tokyo to San Francisco " +
	"for five days to attend a business technology conference. They stay at a hotel downtown, " +
	"carry a return ticket to Japan, and bring about 1,000 dollars in cash and a credit card."

var templates = []QuestionTemplate{
	{1, "滞在期間", "length of stay", "How long will you stay in the U.S.?", []string{"duration", "stay", "days", "weeks", "months"}},
	{2, "目的・場所", "purpose of visit", "What is the purpose of your visit?", []string{"purpose", "business", "tourism", "visit", "vacation"}},
	{3, "カンファレンス詳細", "conference details", "What conference are you attending?", []string{"conference", "event", "meeting", "name", "purpose"}},
	{4, "ホテル", "accommodation", "Where will you stay?", []string{"hotel", "accommodation", "address", "stay", "lodging"}},
	{5, "同行者", "travel companions", "Are you traveling with anyone?", []string{"traveling", "group", "alone", "family", "friends"}},
	{6, "食べ物", "food and agriculture", "Are you carrying any food items?", []string{"food", "agricultural", "products", "carrying", "bringing"}},
	{7, "所持金", "money", "How much money are you carrying?", []string{"money", "cash", "dollars", "funds", "currency"}},
	{8, "職業", "occupation", "What do you do for work?", []string{"job", "work", "occupation", "profession", "career"}},
	{9, "会社名", "employer", "What company do you work for?", []string{"company", "employer", "organization", "business", "firm"}},
	{10, "連絡先情報", "contact information", "How can we contact you if needed?", []string{"contact", "phone", "email", "address", "information"}},
}

var personas = []Persona{
	{ID: "kind", DisplayName: "優しい審査官", Description: "親切で丁寧な対応をする審査官", Tone: ToneFriendly},
	{ID: "normal", DisplayName: "普通の審査官", Description: "標準的な対応をする審査官", Tone: ToneNeutral},
	{ID: "strict", DisplayName: "厳しい審査官", Description: "厳格で詳細を求める審査官", Tone: ToneStrict},
}

// Templates returns a copy of all question templates, ordered by id.
func Templates() []QuestionTemplate {
	out := make([]QuestionTemplate, len(templates))
	for i, t := range templates {
		t.Keywords = slices.Clone(t.Keywords)
		out[i] = t
	}
	return out
}

// Personas returns a copy of all officer personas.
func Personas() []Persona {
	return slices.Clone(personas)
}

// TemplateByID looks up a template.
func TemplateByID(id int) (QuestionTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			t.Keywords = slices.Clone(t.Keywords)
			return t, true
		}
	}
	return QuestionTemplate{}, false
}

// PersonaByID looks up a persona. Matching is case-insensitive.
func PersonaByID(id string) (Persona, bool) {
	for _, p := range personas {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return Persona{}, false
}

// Available returns the templates whose ids are not in used, plus, for
// legacy callers that only track question text, those whose base question
// matches one of askedTexts.
func Available(used map[int]bool, askedTexts []string) []QuestionTemplate {
	asked := make(map[string]bool, len(askedTexts))
	for _, q := range askedTexts {
		asked[normalizeQuestion(q)] = true
	}

	var out []QuestionTemplate
	for _, t := range Templates() {
		if used[t.ID] || asked[normalizeQuestion(t.BaseQuestion)] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Validate checks catalog integrity: unique ids, non-empty fields.
func Validate() error {
	seen := make(map[int]bool)
	for _, t := range templates {
		if seen[t.ID] {
			return fmt.Errorf("duplicate template id %d", t.ID)
		}
		seen[t.ID] = true
		if t.BaseQuestion == "" || len(t.Keywords) == 0 {
			return fmt.Errorf("template %d is incomplete", t.ID)
		}
	}
	ids := make(map[string]bool)
	for _, p := range personas {
		if ids[p.ID] {
			return fmt.Errorf("duplicate persona id %q", p.ID)
		}
		ids[p.ID] = true
	}
	return nil
}
