package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/input"
)

var modifierKeys = map[string]input.Key{
	"alt":     input.AltLeft,
	"option":  input.AltLeft,
	"shift":   input.ShiftLeft,
	"control": input.ControlLeft,
	"ctrl":    input.ControlLeft,
	"meta":    input.MetaLeft,
	"cmd":     input.MetaLeft,
}

var namedKeys = map[string]input.Key{
	"enter":     input.Enter,
	"escape":    input.Escape,
	"esc":       input.Escape,
	"tab":       input.Tab,
	"backspace": input.Backspace,
}

var letterKeys = [...]input.Key{
	input.KeyA, input.KeyB, input.KeyC, input.KeyD, input.KeyE, input.KeyF,
	input.KeyG, input.KeyH, input.KeyI, input.KeyJ, input.KeyK, input.KeyL,
	input.KeyM, input.KeyN, input.KeyO, input.KeyP, input.KeyQ, input.KeyR,
	input.KeyS, input.KeyT, input.KeyU, input.KeyV, input.KeyW, input.KeyX,
	input.KeyY, input.KeyZ,
}

var digitKeys = [...]input.Key{
	input.Digit0, input.Digit1, input.Digit2, input.Digit3, input.Digit4,
	input.Digit5, input.Digit6, input.Digit7, input.Digit8, input.Digit9,
}

// Shortcut is a parsed key chord such as "Alt+Shift+C".
type Shortcut struct {
	Modifiers []input.Key
	Key       input.Key
}

// ParseShortcut parses "+"-separated chords. Modifiers come first and exactly
// one non-modifier key ends the chord.
func ParseShortcut(s string) (Shortcut, error) {
	var sc Shortcut
	parts := strings.Split(s, "+")
	for i, raw := range parts {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: empty key", s)
		}
		last := i == len(parts)-1
		if mod, ok := modifierKeys[name]; ok {
			if last {
				return Shortcut{}, fmt.Errorf("invalid shortcut %q: missing key after modifiers", s)
			}
			sc.Modifiers = append(sc.Modifiers, mod)
			continue
		}
		if !last {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: %q is not a modifier", s, raw)
		}
		k, ok := keyByName(name)
		if !ok {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: unknown key %q", s, raw)
		}
		sc.Key = k
	}
	return sc, nil
}

func keyByName(name string) (input.Key, bool) {
	if k, ok := namedKeys[name]; ok {
		return k, true
	}
	if len(name) != 1 {
		return 0, false
	}
	c := name[0]
	switch {
	case c >= 'a' && c <= 'z':
		return letterKeys[c-'a'], true
	case c >= '0' && c <= '9':
		return digitKeys[c-'0'], true
	}
	return 0, false
}
