package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperties_TypedAccessors(t *testing.T) {
	props := NewProperties(map[string]any{
		"Price":   "15",
		"Amount":  json.Number("3"),
		"Ratio":   2.5,
		"Whole":   4.0,
		"Enabled": "true",
		"Text":    "Hola",
		"Broken":  []string{"unsupported"},
	})

	assert.Equal(t, 15, props.Int("price", 0))
	assert.Equal(t, 3, props.Int("AMOUNT", 0))
	assert.Equal(t, 4, props.Int("Whole", 0))
	assert.Equal(t, -1, props.Int("Ratio", -1), "non-integral floats fall back")
	assert.Equal(t, 2.5, props.Float("ratio", 0))
	assert.True(t, props.Bool("enabled", false))
	assert.Equal(t, "Hola", props.String("text", ""))
	assert.Equal(t, "15", props.String("price", ""))

	assert.Equal(t, 7, props.Int("missing", 7))
	assert.Equal(t, 9, props.Int("text", 9), "unparsable values fall back")
	assert.Equal(t, "def", props.String("broken", "def"), "unsupported inputs are dropped")
	assert.Equal(t, int64(15), Get(props, "Price", int64(0)))
}

func TestValue_JSONRoundTripKeepsKinds(t *testing.T) {
	props := NewProperties(map[string]any{"Price": 5, "Ratio": 0.5, "Text": "hi", "On": true})

	data, err := json.Marshal(props)
	require.NoError(t, err)

	var back Properties
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, props, back)
	assert.Equal(t, KindInt, back["price"].Kind())
}

func TestValue_UnmarshalRejectsObjects(t *testing.T) {
	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.False(t, v.IsValid())
}

func TestProperties_Clone(t *testing.T) {
	props := NewProperties(map[string]any{"Text": "a"})
	clone := props.Clone()
	clone.Set("text", StringValue("b"))
	assert.Equal(t, "a", props.String("Text", ""))
}

func TestProperties_UnmarshalFoldsKeys(t *testing.T) {
	var node ScriptNode
	err := json.Unmarshal([]byte(`{"id":"buy","type":"BuyItem","properties":{"ObjectId":"sword","Price":5}}`), &node)
	require.NoError(t, err)

	assert.Equal(t, "sword", node.Properties.String(PropObjectID, ""))
	assert.Equal(t, 5, node.Properties.Int(PropPrice, -1))
	assert.Equal(t, 5, node.Properties.Int("PRICE", -1))

	// Encoding keeps the folded keys and decodes back to the same bag.
	data, err := json.Marshal(node)
	require.NoError(t, err)
	var again ScriptNode
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, node.Properties, again.Properties)

	var empty Properties
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Nil(t, empty)
}
