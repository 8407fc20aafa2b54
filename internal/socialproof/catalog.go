package socialproof

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog holds the message pools the rotator draws from.
type Catalog struct {
	Exclusivity []Message            `yaml:"exclusivity"`
	TimeOfDay   map[string][]Message `yaml:"time_of_day"`
	Geographic  []Message            `yaml:"geographic"`
	Urgency     []Message            `yaml:"urgency"`
}

// DefaultCatalog returns the built-in LocalPlate copy.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("socialproof: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML and stamps each message with its category.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	stamp(c.Exclusivity, CategoryExclusivity)
	stamp(c.Geographic, CategoryGeographic)
	stamp(c.Urgency, CategoryUrgency)
	for _, pool := range c.TimeOfDay {
		stamp(pool, CategoryTimeOfDay)
	}

	for name, pool := range c.TimeOfDay {
		for i, m := range pool {
			if m.Emoji == "" || m.Text == "" {
				return nil, fmt.Errorf("parse catalog: time_of_day.%s[%d] needs emoji and text", name, i)
			}
		}
	}
	for _, pool := range [][]Message{c.Exclusivity, c.Geographic, c.Urgency} {
		for _, m := range pool {
			if m.Emoji == "" || m.Text == "" {
				return nil, fmt.Errorf("parse catalog: %s message needs emoji and text", m.Category)
			}
		}
	}

	return &c, nil
}

func stamp(pool []Message, category string) {
	for i := range pool {
		pool[i].Category = category
	}
}

// TimeOfDayPool returns the pool for a day part, falling back to the default pool.
func (c *Catalog) TimeOfDayPool(part string) []Message {
	if pool, ok := c.TimeOfDay[part]; ok && len(pool) > 0 {
		return pool
	}
	return c.TimeOfDay[DefaultDayPart]
}

// StaticMessage is the single message shown when motion is reduced.
func (c *Catalog) StaticMessage() (Message, bool) {
	if len(c.Exclusivity) == 0 {
		return Message{}, false
	}
	return c.Exclusivity[0], true
}
