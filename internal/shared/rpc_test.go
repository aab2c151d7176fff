package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string   `json:"name"`
	Count int64    `json:"count"`
	Tags  []string `json:"tags"`
	Bio   *string  `json:"bio"`
}

func TestStructRoundTrip(t *testing.T) {
	in := payload{Name: "hive", Count: 3, Tags: []string{"go"}}

	s, err := ToStruct(in)
	require.NoError(t, err)
	assert.Equal(t, "hive", s.Fields["name"].GetStringValue())

	var out payload
	require.NoError(t, FromStruct(s, &out))
	assert.Equal(t, in, out)
}

func TestToStructWrapsNonObjects(t *testing.T) {
	s, err := ToStruct([]payload{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	var out struct {
		Items []payload `json:"items"`
	}
	require.NoError(t, FromStruct(s, &out))
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "b", out.Items[1].Name)
}

func TestFromStructNil(t *testing.T) {
	out := payload{Name: "keep"}
	require.NoError(t, FromStruct(nil, &out))
	assert.Equal(t, "keep", out.Name)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/nestdevhive.v1.Accounts/Login", FullMethod(MethodLogin))
	assert.True(t, PublicMethods[MethodLogin])
	assert.False(t, PublicMethods[MethodMe])
}
