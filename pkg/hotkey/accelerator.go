// Package hotkey registers a global accelerator that toggles trigger
// delivery without bringing the process to the foreground.
package hotkey

import (
	"fmt"
	"strings"
)

// Accelerator is a parsed "mod+mod+key" chord. Modifier names are
// canonicalised; the key is a single letter or digit.
type Accelerator struct {
	Mods []string
	Key  string
}

// String renders the chord back in canonical form.
func (a Accelerator) String() string {
	if a.Key == "" {
		return ""
	}
	return strings.Join(append(append([]string{}, a.Mods...), a.Key), "+")
}

// ParseAccelerator parses a chord such as "ctrl+alt+f". At least one
// modifier is required so the chord cannot shadow plain typing.
func ParseAccelerator(s string) (Accelerator, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Accelerator{}, fmt.Errorf("accelerator %q needs at least one modifier and a key", s)
	}

	var acc Accelerator
	seen := map[string]bool{}
	for _, part := range parts[:len(parts)-1] {
		mod, err := canonicalModifier(part)
		if err != nil {
			return Accelerator{}, err
		}
		if seen[mod] {
			return Accelerator{}, fmt.Errorf("accelerator %q repeats modifier %q", s, mod)
		}
		seen[mod] = true
		acc.Mods = append(acc.Mods, mod)
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if len(key) != 1 || !isKeyRune(rune(key[0])) {
		return Accelerator{}, fmt.Errorf("accelerator %q must end in a single letter or digit", s)
	}
	acc.Key = key
	return acc, nil
}

func canonicalModifier(name string) (string, error) {
	switch strings.TrimSpace(name) {
	case "ctrl", "control":
		return "ctrl", nil
	case "shift":
		return "shift", nil
	case "alt", "option", "opt":
		return "alt", nil
	case "cmd", "command", "super", "win", "meta":
		return "cmd", nil
	default:
		return "", fmt.Errorf("unknown modifier %q", name)
	}
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
