package fixtures

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Generator produces random project records. The same seed yields the same sequence.
// Names are unique within one generator.
type Generator struct {
	seed uint64

	mu    sync.Mutex
	faker *gofakeit.Faker
	used  map[string]bool
}

// NewGenerator makes a generator for the seed, zero seed is replaced by a time-based one
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // positive
	}
	return &Generator{seed: seed, faker: gofakeit.New(seed), used: map[string]bool{}}
}

// Seed returns the effective seed
func (g *Generator) Seed() uint64 { return g.seed }

// Words returns n space separated lorem words, 3 if n is not positive
func (g *Generator) Words(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.words(n)
}

// Sentence returns a capitalized lorem sentence of 4 to 8 words ending with a period
func (g *Generator) Sentence() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sentence()
}

// NewProject returns a project with a fresh unique name of one to three lorem words
func (g *Generator) NewProject() Project {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := g.words(g.faker.IntRange(1, 3))
	for i := 2; g.used[name]; i++ {
		name = g.words(g.faker.IntRange(1, 3)) + " " + strconv.Itoa(i)
	}
	g.used[name] = true
	return Project{Name: name, Description: g.sentence()}
}

func (g *Generator) words(n int) string {
	if n <= 0 {
		n = 3
	}
	res := make([]string, n)
	for i := range res {
		res[i] = strings.ToLower(g.faker.LoremIpsumWord())
	}
	return strings.Join(res, " ")
}

func (g *Generator) sentence() string {
	s := g.words(g.faker.IntRange(4, 8))
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
