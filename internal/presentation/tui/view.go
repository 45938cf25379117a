package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
)

var interpolation = regexp.MustCompile(`\$\{([^}]*)\}`)

// ViewText turns a component's view into markdown.
//
// String views may embed ${expr} interpolations, evaluated against the component's data and
// props; failures render as "undefined". Views of other types are printed with %v.
func ViewText(c *domain.Component) string {
	var src string
	switch v := c.View.(type) {
	case nil:
		return ""
	case string:
		src = v
	case fmt.Stringer:
		src = v.String()
	default:
		return fmt.Sprintf("%v", v)
	}

	scope := map[string]any{"data": c.Data, "props": c.Props}
	for k, v := range c.Props {
		if _, taken := scope[k]; !taken {
			scope[k] = v
		}
	}
	return interpolation.ReplaceAllStringFunc(src, func(m string) string {
		inner := interpolation.FindStringSubmatch(m)[1]
		v, _ := expr.Evaluate(inner, scope, true, nil)
		return expr.ToString(v)
	})
}

// ActionBar lists the invocable actions of c as a markdown line.
func ActionBar(c *domain.Component) string {
	names := c.ActionNames()
	if len(names) == 0 {
		return ""
	}
	items := make([]string, len(names))
	for i, n := range names {
		items[i] = "`" + n + "`"
	}
	return "Actions: " + strings.Join(items, " ")
}
