package probe

import (
	"context"
	"fmt"
)

// Page is the narrow view of a loaded target that checks observe and drive.
// Element arguments are DOM ids.
type Page interface {
	URL(ctx context.Context) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Click clicks the element and reports whether it existed.
	Click(ctx context.Context, id string) (bool, error)
	SetValue(ctx context.Context, id, value string) error
	// Visible reports a non-zero offset size or any client rects.
	Visible(ctx context.Context, id string) (bool, error)
	// HasBox reports a bounding box with positive width and height.
	HasBox(ctx context.Context, id string) (bool, error)
	// DescendantCount returns the number of descendant elements, or -1 when
	// the element is missing.
	DescendantCount(ctx context.Context, id string) (int, error)
	IframeCount(ctx context.Context) (int, error)
	// Widths returns document scrollWidth and window innerWidth.
	Widths(ctx context.Context) (scrollWidth, innerWidth int, err error)
	Close() error
}

// Acquirer opens a fresh, isolated page on the target at the given viewport.
// An Open failure means the target cannot be reached at all.
type Acquirer interface {
	Open(ctx context.Context, vp Viewport) (Page, error)
}

type Viewport struct {
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
	Width  int    `yaml:"width" json:"width"`
	Height int    `yaml:"height" json:"height"`
}

var (
	Desktop = Viewport{Label: "desktop", Width: 1440, Height: 900}
	Tablet  = Viewport{Label: "tablet", Width: 768, Height: 1024}
	Mobile  = Viewport{Label: "mobile", Width: 390, Height: 844}
)

// DefaultViewport is used by checks that do not name one.
var DefaultViewport = Desktop

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

func (v Viewport) IsZero() bool {
	return v.Width == 0 && v.Height == 0
}
