package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint/builtin"
)

func TestLibraryMatchesRegisteredRules(t *testing.T) {
	m := constraint.NewManager()
	builtin.RegisterDefaultConstraints(m, map[string]interface{}{builtin.KeySeparateDayNight: true})

	lib := GetLibrary()
	assert.Len(t, lib, m.Count())
	for _, c := range m.GetAll() {
		def, ok := Find(string(c.Type()))
		if assert.True(t, ok, "rule %s missing from library", c.Type()) {
			assert.Equal(t, string(c.Category()), def.Type, c.Type())
		}
	}
}

func TestFindUnknown(t *testing.T) {
	_, ok := Find("nope")
	assert.False(t, ok)
}
