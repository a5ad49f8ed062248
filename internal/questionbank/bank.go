// Package questionbank holds the interview question pools and builds the
// duplicate-free question list of a session.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/stemsi/mockview-backend/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default_bank.yaml
var defaultBankYAML []byte

// Entry is one question template.
type Entry struct {
	Text     string   `yaml:"text"`
	Keywords []string `yaml:"keywords"`
}

// Category groups the difficulty pools of one interview category.
type Category struct {
	Name  string             `yaml:"name"`
	Pools map[string][]Entry `yaml:"pools"`
}

// Bank is the full question catalogue. Category order is significant: it is
// the scan order of the top-up pass.
type Bank struct {
	Categories []Category `yaml:"categories"`
}

// Default parses the embedded question bank.
func Default() (*Bank, error) {
	return Parse(defaultBankYAML)
}

// Load reads a bank from path, or the embedded default when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML question bank.
func Parse(data []byte) (*Bank, error) {
	var b Bank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if len(b.Categories) == 0 {
		return nil, errors.New("question bank has no categories")
	}

	seen := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		if c.Name == "" || c.Name == model.CategoryMixed {
			return nil, fmt.Errorf("invalid category name %q", c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		for diff, entries := range c.Pools {
			for i, e := range entries {
				if e.Text == "" {
					return nil, fmt.Errorf("category %q difficulty %q entry %d has no text", c.Name, diff, i)
				}
			}
		}
	}
	return &b, nil
}

// HasCategory reports whether name is a concrete category of the bank.
func (b *Bank) HasCategory(name string) bool {
	_, ok := b.category(name)
	return ok
}

// CategoryNames returns the category names in bank order.
func (b *Bank) CategoryNames() []string {
	names := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		names = append(names, c.Name)
	}
	return names
}

func (b *Bank) category(name string) (*Category, bool) {
	for i := range b.Categories {
		if b.Categories[i].Name == name {
			return &b.Categories[i], true
		}
	}
	return nil, false
}

// pool returns the entries for difficulty, or the medium pool when that
// difficulty is absent or empty.
func (c *Category) pool(difficulty string) []Entry {
	if entries := c.Pools[difficulty]; len(entries) > 0 {
		return entries
	}
	return c.Pools[model.DifficultyMedium]
}

var difficultyOrder = map[string]int{
	model.DifficultyEasy:   0,
	model.DifficultyMedium: 1,
	model.DifficultyHard:   2,
}

// all yields every entry in a stable order: categories in bank order, then
// easy, medium, hard, then any custom difficulties alphabetically.
func (b *Bank) all() []Entry {
	var out []Entry
	for _, c := range b.Categories {
		diffs := make([]string, 0, len(c.Pools))
		for d := range c.Pools {
			diffs = append(diffs, d)
		}
		sort.Slice(diffs, func(i, j int) bool {
			ri, iKnown := difficultyOrder[diffs[i]]
			rj, jKnown := difficultyOrder[diffs[j]]
			switch {
			case iKnown && jKnown:
				return ri < rj
			case iKnown != jKnown:
				return iKnown
			default:
				return diffs[i] < diffs[j]
			}
		})
		for _, d := range diffs {
			out = append(out, c.Pools[d]...)
		}
	}
	return out
}
