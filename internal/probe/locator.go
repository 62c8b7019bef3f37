package probe

import "fmt"

// Locator addresses elements of a third-party UI (the hosted editor) that
// carries no stable ids: a CSS selector, optionally narrowed by visible text.
type Locator struct {
	CSS string
	// Text matches the element text case-insensitively as a substring, or
	// exactly (after trimming) when Exact is set.
	Text  string
	Exact bool
}

func CSS(sel string) Locator { return Locator{CSS: sel} }

// HasText matches css elements whose text contains text.
func HasText(css, text string) Locator { return Locator{CSS: css, Text: text} }

// ExactText matches any element whose whole text is text.
func ExactText(text string) Locator { return Locator{CSS: "*", Text: text, Exact: true} }

func (l Locator) String() string {
	switch {
	case l.Text == "":
		return l.CSS
	case l.Exact:
		return fmt.Sprintf("text=%q", l.Text)
	default:
		return fmt.Sprintf("%s:has-text(%q)", l.CSS, l.Text)
	}
}
