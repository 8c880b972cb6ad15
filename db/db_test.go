package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Спецсимволы LIKE в поисковой строке экранируются, подстрока ищется буквально
func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"landing page", "landing page"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
		{"%_", `\%\_`},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, escapeLike(tc.in), "input %q", tc.in)
	}
}
