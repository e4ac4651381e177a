// Package country reads per-country settings such as partitions, spoken
// languages and localized country names.
package country

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultNameKey is the key of the untranslated name in Settings.Names.
const DefaultNameKey = "default"

// Settings holds the properties of one country.
type Settings struct {
	Partition int
	Languages []string
	// Names maps a language code or DefaultNameKey onto the country name.
	Names map[string]string
}

// LocalizedNames returns the default name followed by the names in the
// given languages, ordered by language. With no languages every name is
// returned.
func (s Settings) LocalizedNames(languages []string) []string {
	var names []string
	if n := s.Names[DefaultNameKey]; n != "" {
		names = append(names, n)
	}

	keys := make([]string, 0, len(s.Names))
	for k := range s.Names {
		if k != DefaultNameKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(languages) > 0 && !contains(languages, k) {
			continue
		}
		if n := s.Names[k]; n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Info is the read-only collection of all country settings.
type Info struct {
	countries map[string]Settings
}

// Load reads a country settings file.
func Load(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("country settings: %w", err)
	}
	info, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("country settings %s: %w", path, err)
	}
	return info, nil
}

// Parse decodes country settings. Missing languages or names default to
// empty values.
func Parse(data []byte) (*Info, error) {
	var raw map[string]*rawSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	info := &Info{countries: make(map[string]Settings, len(raw))}
	for code, r := range raw {
		s := Settings{Languages: []string{}, Names: map[string]string{}}
		if r != nil {
			s.Partition = r.Partition
			if r.Languages != nil {
				s.Languages = r.Languages
			}
			for k, v := range r.Names.Name {
				s.Names[k] = v
			}
		}
		info.countries[strings.ToLower(code)] = s
	}
	return info, nil
}

// Codes returns all country codes in sorted order.
func (i *Info) Codes() []string {
	codes := make([]string, 0, len(i.countries))
	for cc := range i.countries {
		codes = append(codes, cc)
	}
	sort.Strings(codes)
	return codes
}

// Get returns the settings of a country.
func (i *Info) Get(code string) (Settings, bool) {
	s, ok := i.countries[strings.ToLower(code)]
	return s, ok
}

type rawSettings struct {
	Partition int          `yaml:"partition"`
	Languages languageList `yaml:"languages"`
	Names     struct {
		Name map[string]string `yaml:"name"`
	} `yaml:"names"`
}

// languageList accepts a comma-separated string or a sequence.
type languageList []string

func (l *languageList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		list := languageList{}
		for _, lang := range strings.Split(s, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				list = append(list, lang)
			}
		}
		*l = list
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
	default:
		return fmt.Errorf("line %d: languages must be a string or a list", node.Line)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
