package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyphenToCamel(t *testing.T) {
	assert.Equal(t, "AaBb", HyphenToCamel("aa-bb"))
	assert.Equal(t, "AaBbCc", HyphenToCamel("aa-bb-cc"))
	assert.Equal(t, "Button", HyphenToCamel("button"))
	assert.Equal(t, "", HyphenToCamel(""))
}

func TestCamelToHyphen(t *testing.T) {
	assert.Equal(t, "aw-button", CamelToHyphen("AwButton"))
	assert.Equal(t, "aw-button", CamelToHyphen("awButton"))
	assert.Equal(t, "counter", CamelToHyphen("Counter"))
	assert.Equal(t, "", CamelToHyphen(""))
}

func TestCanonical(t *testing.T) {
	for _, in := range []string{"AwButton", "awButton", "aw-button"} {
		assert.Equal(t, "aw-button", Canonical(in), in)
	}
	assert.Equal(t, "counter", Canonical("counter"))
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"AwButton", "AaBbCc", "Counter"} {
		assert.Equal(t, name, HyphenToCamel(CamelToHyphen(name)))
	}
}
