// Package templates holds the caption templates and picks one per contact.
package templates

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"greetsend/pkg/errors"
)

// Placeholder is replaced with the contact's name
const Placeholder = "{name}"

var (
	// ErrNoTemplates is wrapped when a template source yields no templates
	ErrNoTemplates = stderrors.New("template list is empty")
	// ErrPlaceholder is wrapped when a template does not contain exactly one
	// placeholder
	ErrPlaceholder = stderrors.New("template must contain exactly one " + Placeholder + " placeholder")
)

//go:embed default.yaml
var defaultYAML []byte

// Template is a caption with one name placeholder
type Template string

// Render substitutes name for the placeholder and changes nothing else
func Render(t Template, name string) string {
	return strings.Replace(string(t), Placeholder, name, 1)
}

// Set is an ordered, non-empty list of templates
type Set struct {
	Source    string     `yaml:"-"`
	Templates []Template `yaml:"templates"`
}

// Default returns the built-in Eid greeting set
func Default() *Set {
	set, err := parse(defaultYAML, "built-in")
	if err != nil {
		panic(fmt.Sprintf("built-in templates are invalid: %v", err))
	}
	return set
}

// Load reads a YAML template file of the form `templates: [...]`
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInput, fmt.Sprintf("failed to read templates file '%s'", path), err)
	}
	return parse(data, path)
}

// LoadOrDefault loads path, or returns the built-in set when path is empty
func LoadOrDefault(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func parse(data []byte, source string) (*Set, error) {
	set := &Set{Source: source}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInput, fmt.Sprintf("failed to parse templates file '%s'", source), err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Validate checks the set is non-empty and every template has exactly one
// placeholder
func (s *Set) Validate() error {
	if s == nil || len(s.Templates) == 0 {
		return errors.Wrap(errors.ErrorTypeInput, "no caption templates configured", ErrNoTemplates)
	}
	for i, t := range s.Templates {
		if n := strings.Count(string(t), Placeholder); n != 1 {
			return errors.Wrap(errors.ErrorTypeInput,
				fmt.Sprintf("template %d in %s has %d placeholders", i+1, s.Source, n),
				ErrPlaceholder)
		}
	}
	return nil
}

// Len returns the number of templates
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Templates)
}

// Picker chooses templates uniformly at random
type Picker struct {
	set *Set
	rng *rand.Rand
}

// NewPicker creates a picker over set. A nil rng is seeded from the clock.
func NewPicker(set *Set, rng *rand.Rand) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Picker{set: set, rng: rng}
}

// Pick returns a random template and its index in the set
func (p *Picker) Pick() (int, Template) {
	i := p.rng.Intn(len(p.set.Templates))
	return i, p.set.Templates[i]
}

// Set returns the template set the picker draws from
func (p *Picker) Set() *Set {
	return p.set
}
