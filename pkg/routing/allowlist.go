package routing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RouteClass decides how cross-cutting middleware treats a path
// (error format, ops guard, rate limiting).
type RouteClass string

const (
	RouteClassUI          RouteClass = "ui"
	RouteClassAuthn       RouteClass = "authn"
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassOps         RouteClass = "ops"
	RouteClassStatic      RouteClass = "static"
)

const DefaultEntrypoint = "portal"

var ErrAllowlistNotFound = errors.New("routing allowlist not found")

//go:embed allowlist.yaml
var embeddedAllowlist []byte

type AllowlistRule struct {
	Prefix string     `yaml:"prefix"`
	Class  RouteClass `yaml:"class"`
}

type allowlistFile struct {
	Version     int                        `yaml:"version"`
	Entrypoints map[string][]AllowlistRule `yaml:"entrypoints"`
}

// DefaultAllowlistPath returns the ROUTING_ALLOWLIST_PATH override, or ""
// when the embedded allowlist applies.
func DefaultAllowlistPath() string {
	return strings.TrimSpace(os.Getenv("ROUTING_ALLOWLIST_PATH"))
}

// LoadAllowlist reads rules for entrypoint from path. An empty path falls back
// to ROUTING_ALLOWLIST_PATH and then to the allowlist compiled into the binary.
// An explicit path that cannot be read is an error.
func LoadAllowlist(path, entrypoint string) ([]AllowlistRule, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultAllowlistPath()
	}
	if path == "" {
		return ParseAllowlist(embeddedAllowlist, entrypoint)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrAllowlistNotFound, path)
		}
		return nil, errors.Wrapf(err, "read allowlist %s", path)
	}
	return ParseAllowlist(raw, entrypoint)
}

// LoadClassifier builds the classifier every route-aware middleware shares.
func LoadClassifier(path, entrypoint string) (*Classifier, error) {
	rules, err := LoadAllowlist(path, entrypoint)
	if err != nil {
		return nil, err
	}
	return NewClassifier(rules), nil
}

// DefaultClassifier classifies with the embedded allowlist for the portal
// entrypoint.
var DefaultClassifier = sync.OnceValue(func() *Classifier {
	rules, err := ParseAllowlist(embeddedAllowlist, DefaultEntrypoint)
	if err != nil {
		panic(errors.Wrap(err, "embedded allowlist"))
	}
	return NewClassifier(rules)
})

func ParseAllowlist(raw []byte, entrypoint string) ([]AllowlistRule, error) {
	var file allowlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "decode allowlist")
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported allowlist version: %d", file.Version)
	}

	if strings.TrimSpace(entrypoint) == "" {
		entrypoint = DefaultEntrypoint
	}
	rules, ok := file.Entrypoints[entrypoint]
	if !ok {
		return nil, fmt.Errorf("entrypoint %q not found in allowlist", entrypoint)
	}

	for i := range rules {
		rules[i].Prefix = strings.TrimSpace(rules[i].Prefix)
		if rules[i].Prefix == "" {
			return nil, fmt.Errorf("allowlist rule[%d]: empty prefix", i)
		}
		if !strings.HasPrefix(rules[i].Prefix, "/") {
			return nil, fmt.Errorf("allowlist rule[%d]: prefix must start with '/': %q", i, rules[i].Prefix)
		}
		switch rules[i].Class {
		case RouteClassUI, RouteClassAuthn, RouteClassInternalAPI, RouteClassOps, RouteClassStatic:
		default:
			return nil, fmt.Errorf("allowlist rule[%d]: unknown class: %q", i, rules[i].Class)
		}
	}
	return rules, nil
}
