package categorization

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_registry.yaml
var defaultRegistryYAML []byte

var (
	ErrInvalidRegistry = errors.New("invalid registry")
	ErrUnknownCategory = errors.New("unknown category")
)

// Category is a registry entry. Keywords feed the rule engine.
type Category struct {
	Code     string   `yaml:"code" json:"code"`
	Name     string   `yaml:"name" json:"name"`
	Color    string   `yaml:"color" json:"color"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// Account is a registry entry for a bank account.
type Account struct {
	Code  string `yaml:"code" json:"code"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

// Registry is the read-only catalogue of categories and accounts.
type Registry struct {
	Categories []Category `yaml:"categories"`
	Accounts   []Account  `yaml:"accounts"`
}

// ParseRegistry decodes a YAML registry. Codes are uppercased and must be
// unique within their list.
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}

	seen := make(map[string]bool)
	for i := range reg.Categories {
		c := &reg.Categories[i]
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Code == "" {
			return nil, fmt.Errorf("%w: category %d has no code", ErrInvalidRegistry, i)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("%w: duplicate category %s", ErrInvalidRegistry, c.Code)
		}
		seen[c.Code] = true
		if c.Name == "" {
			c.Name = c.Code
		}
	}

	seen = make(map[string]bool)
	for i := range reg.Accounts {
		a := &reg.Accounts[i]
		a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
		if a.Code == "" {
			return nil, fmt.Errorf("%w: account %d has no code", ErrInvalidRegistry, i)
		}
		if seen[a.Code] {
			return nil, fmt.Errorf("%w: duplicate account %s", ErrInvalidRegistry, a.Code)
		}
		seen[a.Code] = true
	}
	return &reg, nil
}

// LoadRegistry reads a registry file, or the built-in one when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	return ParseRegistry(data)
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultRegistryYAML)
}

// Category looks a category up by code.
func (r *Registry) Category(code string) (Category, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range r.Categories {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

// Account looks an account up by code.
func (r *Registry) Account(code string) (Account, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, a := range r.Accounts {
		if a.Code == code {
			return a, true
		}
	}
	return Account{}, false
}
