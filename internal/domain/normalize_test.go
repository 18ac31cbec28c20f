package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHumanName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Jane \t Doe \n": "Jane Doe",
		"Jose\u0301 Lima": "Jos\u00e9 Lima",
		"Ana\u200b Maria": "Ana Maria",
		"\u202eZed\u0007": "Zed",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHumanName(in), "input %q", in)
	}
}
