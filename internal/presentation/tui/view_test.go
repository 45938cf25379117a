package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/few/pkg/domain"
)

func TestViewText(t *testing.T) {
	c := &domain.Component{
		Data:  domain.Store{"value": 3, "user": map[string]any{"name": "Ada"}},
		Props: map[string]any{"title": "Counter"},
		View:  "# ${title}\n\nHello ${data.user.name}, value is **${data.value + 1}** ${data.nope.x}",
	}

	assert.Equal(t, "# Counter\n\nHello Ada, value is **4** undefined", ViewText(c))
}

func TestViewText_NonString(t *testing.T) {
	assert.Equal(t, "", ViewText(&domain.Component{}))
	assert.Equal(t, "42", ViewText(&domain.Component{View: 42}))
}

func TestActionBar(t *testing.T) {
	c := &domain.Component{Actions: map[string]func() error{"b": nil, "a": nil}}
	assert.Equal(t, "Actions: `a` `b`", ActionBar(c))
	assert.Equal(t, "", ActionBar(&domain.Component{}))
}
