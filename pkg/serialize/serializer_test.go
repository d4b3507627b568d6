package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSerialize(t *testing.T) {
	t.Parallel()
	type order struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}

	body, err := JSON{}.Serialize(order{ID: "ord-1", Amount: 12.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ord-1","amount":12.5}`, body)
}

func TestJSONSerializeString(t *testing.T) {
	t.Parallel()
	body, err := JSON{}.Serialize("plain")
	require.NoError(t, err)
	assert.Equal(t, `"plain"`, body)
}

func TestJSONSerializeUnsupportedType(t *testing.T) {
	t.Parallel()
	_, err := JSON{}.Serialize(make(chan int))
	require.ErrorIs(t, err, ErrNotSerializable)
}
