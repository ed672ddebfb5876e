package questiongen

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/abhisek/borderdrill/internal/catalog"
)

// Selector chooses which template and persona to use. Candidates are never
// empty when a Selector is called.
type Selector interface {
	Template(candidates []catalog.QuestionTemplate) catalog.QuestionTemplate
	Persona(personas []catalog.Persona) catalog.Persona
}

// RandomSelector picks uniformly at random.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector returns a selector seeded from the runtime source.
func NewRandomSelector() *RandomSelector {
	return NewSeededSelector(rand.Uint64(), rand.Uint64())
}

// NewSeededSelector returns a reproducible selector.
func NewSeededSelector(seed1, seed2 uint64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (s *RandomSelector) Template(candidates []catalog.QuestionTemplate) catalog.QuestionTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.IntN(len(candidates))]
}

func (s *RandomSelector) Persona(personas []catalog.Persona) catalog.Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return personas[s.rng.IntN(len(personas))]
}

// FixedSelector picks deterministically: the first candidate that appears
// in TemplateOrder (else the first candidate), and the persona with
// PersonaID (else the first persona).
type FixedSelector struct {
	TemplateOrder []int
	PersonaID     string
}

func (s FixedSelector) Template(candidates []catalog.QuestionTemplate) catalog.QuestionTemplate {
	for _, id := range s.TemplateOrder {
		if i := slices.IndexFunc(candidates, func(t catalog.QuestionTemplate) bool { return t.ID == id }); i >= 0 {
			return candidates[i]
		}
	}
	return candidates[0]
}

func (s FixedSelector) Persona(personas []catalog.Persona) catalog.Persona {
	if i := slices.IndexFunc(personas, func(p catalog.Persona) bool { return p.ID == s.PersonaID }); i >= 0 {
		return personas[i]
	}
	return personas[0]
}
