package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/borderdrill/internal/catalog"
)

const systemPrompt = `You are a U.S. immigration officer at an airport primary inspection booth.
You help Japanese travelers practice English by asking them one interview question at a time.

Rules:
- Ask exactly one SHORT, direct question, the way a real officer would.
- Paraphrase or reuse the reference question for the given topic. Do not switch topics.
- Speak only in the officer tone you are given.
- The sample answer must be short, natural English and consistent with the traveler scenario.
- The Japanese translation must be natural Japanese.
- Do not repeat any topic from the "already asked" list.
- Respond with ONLY a JSON object. No markdown, no commentary.`

// styleExamples anchor question length and register.
var styleExamples = []string{
	"What is the purpose of your visit?",
	"How long will you stay in the U.S.?",
	"Where will you stay?",
	"Do you have a return ticket?",
	"Who are you traveling with?",
	"What do you do for work?",
	"Have you been to the U.S. before?",
	"How much money are you carrying?",
	"Are you bringing any food or agricultural products?",
}

// buildUserMessage constructs the per-request prompt. It carries exactly
// one tone instruction: the selected persona's.
func buildUserMessage(tmpl catalog.QuestionTemplate, persona catalog.Persona, prior []string, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Officer tone: %s\n", persona.Tone.Instruction())
	fmt.Fprintf(&b, "Topic: %s\n", tmpl.TopicEN)
	fmt.Fprintf(&b, "Reference question: %s\n", tmpl.BaseQuestion)
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(tmpl.Keywords, ", "))

	b.WriteString("\nTraveler scenario:\n")
	b.WriteString(catalog.Scenario)
	b.WriteString("\n")

	b.WriteString("\nStyle examples (match their length):\n")
	for _, ex := range styleExamples {
		fmt.Fprintf(&b, "- %s\n", ex)
	}

	b.WriteString("\nAlready asked in this session (DO NOT repeat these topics):\n")
	b.WriteString(buildDedup(prior, cfg.MaxPriorQuestions))
	b.WriteString("\n")

	fmt.Fprintf(&b, "\nReturn JSON with fields question, questionJa, sampleAnswer, keywords, questionId (%d) and persona (%q).",
		tmpl.ID, persona.ID)

	return b.String()
}

// buildDedup formats prior questions for the prompt, keeping the most
// recent max entries. Returns "None" if there are none.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
