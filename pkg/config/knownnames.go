package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// KnownNames is the proper-noun whitelist loaded from known_names.json.
// Names on it may appear in answers even when absent from retrieved context.
type KnownNames struct {
	Brands      []string            `json:"brands"`
	Restaurants map[string][]string `json:"restaurants"`
	Facilities  []string            `json:"facilities"`
	RoomTypes   []string            `json:"room_types"`

	lookup map[string]bool
}

// LoadKnownNames reads known_names.json from dir. A missing file yields an
// empty (permissive-whitelist-free) set rather than an error.
func LoadKnownNames(dir string) (*KnownNames, error) {
	path := filepath.Join(dir, "known_names.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Warn("known_names.json not found, proper-noun whitelist is empty", "path", path)
		kn := &KnownNames{}
		kn.buildLookup()
		return kn, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known names: %w", err)
	}

	var kn KnownNames
	if err := json.Unmarshal(data, &kn); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	kn.buildLookup()
	slog.Info("Loaded known names", "entries", len(kn.lookup))
	return &kn, nil
}

func (k *KnownNames) buildLookup() {
	k.lookup = make(map[string]bool)
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			k.lookup[name] = true
		}
	}
	for _, n := range k.Brands {
		add(n)
	}
	for _, names := range k.Restaurants {
		for _, n := range names {
			add(n)
		}
	}
	for _, n := range k.Facilities {
		add(n)
	}
	for _, n := range k.RoomTypes {
		add(n)
	}
	// The hotel registry itself is always whitelisted.
	for _, h := range Hotels {
		add(h.Name)
	}
	for _, ra := range RestaurantAliases {
		add(ra.Restaurant)
	}
	for alias := range RestaurantAliases {
		add(alias)
	}
}

// Contains reports whether name is whitelisted (case-insensitive).
func (k *KnownNames) Contains(name string) bool {
	return k.lookup[strings.ToLower(strings.TrimSpace(name))]
}

// defaultForbiddenPhrases backstop the JSON file: deflection phrasing the
// model tends to emit and the product forbids.
var defaultForbiddenPhrases = []string{
	`궁금하신가요\s*\?`,
	`더\s*자세한\s*내용이\s*궁금`,
	`추가\s*문의\s*부탁드립니다`,
	`무엇이든\s*물어보세요`,
}

// LoadForbiddenPatterns reads forbidden_patterns.json from dir and compiles
// the union of file patterns and built-in defaults. Invalid regexes are
// logged and skipped.
func LoadForbiddenPatterns(dir string) ([]*regexp.Regexp, error) {
	patterns := append([]string{}, defaultForbiddenPhrases...)

	path := filepath.Join(dir, "forbidden_patterns.json")
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Warn("forbidden_patterns.json not found, using built-in defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read forbidden patterns: %w", err)
	default:
		var file struct {
			Patterns []string `json:"patterns"`
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		patterns = append(patterns, file.Patterns...)
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Error("Skipping invalid forbidden pattern", "pattern", p, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
