// Package config reads and writes the repository's ".pygit/config" file, an
// INI-style "[section]\n\tkey = value" layout matching Git's own config
// format.
package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Config holds parsed sections, each a flat map of key to value. Section
// names and keys are matched case-insensitively, as Git itself does.
type Config struct {
	sections map[string]map[string]string
}

// New returns an empty Config.
func New() *Config {
	return &Config{sections: make(map[string]map[string]string)}
}

// Load parses the config file at path. A missing file yields an empty,
// valid Config rather than an error.
func Load(path string) (*Config, error) {
	c := New()

	//nolint:gosec // G304: path is the repository's own config file
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close() //nolint:errcheck

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		c.Set(section, strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return c, nil
}

// Get returns the value for section/key, and whether it was present.
func (c *Config) Get(section, key string) (string, bool) {
	sec, ok := c.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	v, ok := sec[strings.ToLower(key)]
	return v, ok
}

// Set records a key's value within section, creating the section if needed.
func (c *Config) Set(section, key, value string) {
	section = strings.ToLower(section)
	sec, ok := c.sections[section]
	if !ok {
		sec = make(map[string]string)
		c.sections[section] = sec
	}
	sec[strings.ToLower(key)] = value
}

// Save writes the config back to path in Git's "[section]\n\tkey = value" form.
func (c *Config) Save(path string) error {
	var b strings.Builder
	sections := make([]string, 0, len(c.sections))
	for s := range c.sections {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	for _, s := range sections {
		fmt.Fprintf(&b, "[%s]\n", s)
		keys := make([]string, 0, len(c.sections[s]))
		for k := range c.sections[s] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\t%s = %s\n", k, c.sections[s][k])
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Identity is the name/email pair used to author commits and tags.
type Identity struct {
	Name  string
	Email string
}

// ResolveIdentity determines the commit identity following Git's own
// precedence: PYGIT_AUTHOR_NAME/PYGIT_AUTHOR_EMAIL environment variables
// first, then user.name/user.email from the repository config.
func ResolveIdentity(cfg *Config) (Identity, error) {
	id := Identity{
		Name:  os.Getenv("PYGIT_AUTHOR_NAME"),
		Email: os.Getenv("PYGIT_AUTHOR_EMAIL"),
	}

	if id.Name == "" {
		if v, ok := cfg.Get("user", "name"); ok {
			id.Name = v
		}
	}
	if id.Email == "" {
		if v, ok := cfg.Get("user", "email"); ok {
			id.Email = v
		}
	}

	if id.Name == "" || id.Email == "" {
		return Identity{}, fmt.Errorf("no identity configured: set user.name/user.email in .pygit/config or PYGIT_AUTHOR_NAME/PYGIT_AUTHOR_EMAIL")
	}
	return id, nil
}
