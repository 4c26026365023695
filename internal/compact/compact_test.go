package compact

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]int64{
		"1.2M":  1_200_000,
		"850k":  850_000,
		"850K":  850_000,
		"1234":  1234,
		"1,234": 1234,
		"2.5b":  2_500_000_000,
		"":      0,
		" 12 ":  12,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("lots")
	assert.Error(t, err)
	_, err = Parse("-5k")
	assert.Error(t, err)
}

func TestParse_RejectsNonFinite(t *testing.T) {
	for _, in := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "NaNk", "InfM", "1e30", "9.3e9B"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}

	var c Count
	assert.Error(t, json.Unmarshal([]byte(`"NaN"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`1e30`), &c))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "500", Format(500))
	assert.Equal(t, "999", Format(999))
	assert.Equal(t, "1.0k", Format(1000))
	assert.Equal(t, "850.0k", Format(850_000))
	assert.Equal(t, "1.2M", Format(1_234_567))
}

func TestFormat_PicksSuffixAfterRounding(t *testing.T) {
	assert.Equal(t, "999.9k", Format(999_949))
	assert.Equal(t, "1.0M", Format(999_950))
	assert.Equal(t, "1.0M", Format(999_999))
	assert.Equal(t, "1.0k", Format(1_049))
	assert.Equal(t, "10.0M", Format(9_999_999))

	n, err := Parse(Format(999_999))
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), n)
}

func TestRoundTrip(t *testing.T) {
	n, err := Parse("1.2M")
	require.NoError(t, err)
	assert.Equal(t, "1.2M", Format(n))

	n, err = Parse(Format(500))
	require.NoError(t, err)
	assert.Equal(t, int64(500), n)

	// Precision above the displayed digit is lost.
	n, err = Parse(Format(1_234_567))
	require.NoError(t, err)
	assert.Equal(t, int64(1_200_000), n)
}

func TestCount_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Count `json:"a"`
		B Count `json:"b"`
		C Count `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.2M","b":42,"c":null}`), &v))
	assert.Equal(t, Count(1_200_000), v.A)
	assert.Equal(t, Count(42), v.B)
	assert.Equal(t, Count(0), v.C)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1200000,"b":42,"c":0}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a":-1}`), &v))
}
