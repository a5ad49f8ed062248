package questionbank

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/stemsi/mockview-backend/internal/model"
)

var (
	ErrInvalidCount    = errors.New("question count must be at least 1")
	ErrUnknownCategory = errors.New("unknown interview category")
)

// Selector draws session question lists from a Bank.
type Selector struct {
	bank *Bank

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// NewSelector creates a Selector. src drives every shuffle, so a fixed source
// makes selection reproducible.
func NewSelector(bank *Bank, src rand.Source) *Selector {
	return &Selector{bank: bank, rnd: rand.New(src)}
}

// Bank returns the underlying question bank.
func (s *Selector) Bank() *Bank {
	return s.bank
}

// Generate returns count questions with pairwise distinct texts, ordered
// 0..count-1. The result is shorter than count only when the whole bank holds
// fewer unique texts.
func (s *Selector) Generate(category, difficulty string, count int) ([]model.Question, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if category != model.CategoryMixed && !s.bank.HasCategory(category) {
		return nil, ErrUnknownCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := picker{used: make(map[string]struct{}, count), limit: count}

	if category == model.CategoryMixed {
		s.fillRoundRobin(&p, difficulty)
	} else {
		c, _ := s.bank.category(category)
		for _, e := range s.shuffled(c.pool(difficulty)) {
			if p.full() {
				break
			}
			p.take(e, c.Name)
		}
	}

	// Top-up from the whole bank when the chosen pools ran dry.
	for _, e := range s.bank.all() {
		if p.full() {
			break
		}
		p.take(e, model.CategoryGeneral)
	}

	for i := range p.out {
		p.out[i].Order = i
	}
	return p.out, nil
}

// fillRoundRobin fills slot i from category i mod len(categories), over a
// shuffled category order. A category with nothing unused left forfeits its
// slot.
func (s *Selector) fillRoundRobin(p *picker, difficulty string) {
	names := s.bank.CategoryNames()
	if len(names) == 0 {
		return
	}
	s.rnd.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	pools := make(map[string][]Entry, len(names))
	cursor := make(map[string]int, len(names))
	for _, name := range names {
		c, _ := s.bank.category(name)
		pools[name] = s.shuffled(c.pool(difficulty))
	}

	for slot := 0; slot < p.limit; slot++ {
		name := names[slot%len(names)]
		pool := pools[name]
		for cursor[name] < len(pool) {
			e := pool[cursor[name]]
			cursor[name]++
			if p.take(e, name) {
				break
			}
		}
	}
}

func (s *Selector) shuffled(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

type picker struct {
	used  map[string]struct{}
	out   []model.Question
	limit int
}

func (p *picker) full() bool {
	return len(p.out) >= p.limit
}

// take appends e unless its text is already used. It reports whether e was taken.
func (p *picker) take(e Entry, category string) bool {
	key := strings.ToLower(strings.TrimSpace(e.Text))
	if _, dup := p.used[key]; dup || p.full() {
		return false
	}
	p.used[key] = struct{}{}
	p.out = append(p.out, model.Question{
		Text:             e.Text,
		Category:         category,
		ExpectedKeywords: append([]string(nil), e.Keywords...),
	})
	return true
}
