package registry_test

import (
	"testing"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func TestDefault_ClassifiesEveryDialogueType(t *testing.T) {
	r := registry.NewDefault()
	for _, nt := range domain.NodeTypes() {
		category, ok := r.Category(nt)
		assert.True(t, ok, "node type %s must be registered", nt)
		assert.Equal(t, domain.CategoryDialogue, category)
	}
}

func TestCategory_CaseInsensitive(t *testing.T) {
	r := registry.NewDefault()

	category, ok := r.Category("npcsay")
	assert.True(t, ok)
	assert.Equal(t, domain.CategoryDialogue, category)

	category, ok = r.Category("SETDOORSTATE")
	assert.True(t, ok)
	assert.Equal(t, "World", category)

	_, ok = r.Category("Teleport")
	assert.False(t, ok)
}

func TestDefaults_ReturnsIndependentCopies(t *testing.T) {
	r := registry.NewDefault()

	first := r.Defaults(domain.NodeBuyItem)
	assert.Equal(t, 0, first.Int(domain.PropPrice, -1))
	first.Set(domain.PropPrice, domain.IntValue(99))

	second := r.Defaults(domain.NodeBuyItem)
	assert.Equal(t, 0, second.Int(domain.PropPrice, -1))

	assert.NotNil(t, r.Defaults("Unknown"))
}

func TestRegister_Overwrites(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("Custom", registry.Entry{Category: "World"})
	r.Register("custom", registry.Entry{Category: domain.CategoryDialogue})

	category, _ := r.Category("CUSTOM")
	assert.Equal(t, domain.CategoryDialogue, category)
}
