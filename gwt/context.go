package gwt

import "strings"

// stickyKeys persist across clauses within one scenario.
var stickyKeys = map[string]bool{
	"feature":      true,
	"feature_slug": true,
	"file":         true,
	"gwt":          true,
	"dal":          true,
	"source":       true,
	"from":         true,
	"target":       true,
	"scenario":     true,
	"line":         true,
}

// specPathKeys additionally seed the dedicated spec-path slots when their
// value looks like a spec file.
var specPathKeys = map[string]bool{
	"path": true,
	"gwt":  true,
	"dal":  true,
}

// Context is the small finite-state accumulator scoped to one scenario's
// parse. It is passed explicitly through the clause loop and reset at
// scenario flush points.
type Context map[string]any

// update records the sticky keys of a validated step's arguments.
func (c Context) update(args map[string]any) {
	for key, value := range args {
		if stickyKeys[key] {
			c[key] = value
		}
		if key == "file" {
			c.seedSpecPath(value)
		}
		if specPathKeys[key] {
			c.seedSpecPath(value)
		}
	}
}

func (c Context) seedSpecPath(value any) {
	s, ok := value.(string)
	if !ok {
		return
	}
	if strings.HasSuffix(s, ".dal") {
		c["dal_spec_path"] = s
	}
	if strings.HasSuffix(s, ".txt") {
		c["gwt_spec_path"] = s
	}
}

// afterFlush returns the context for the next scenario: only the feature
// identity and spec-path bookkeeping survive a scenario boundary.
func (c Context) afterFlush() Context {
	next := Context{}
	for _, key := range []string{"feature", "feature_slug", "dal_spec_path", "gwt_spec_path"} {
		if value, ok := c[key]; ok {
			next[key] = value
		}
	}
	return next
}
