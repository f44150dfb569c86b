//go:build !integration

package payment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hosting-payments/internal/domain"
)

func TestParseMinorUnits(t *testing.T) {
	ok := map[string]int64{
		"9.99":    999,
		"999":     99900,
		"999.0":   99900,
		"0.5":     50,
		".75":     75,
		"10.100":  1010,
		" 42.00 ": 4200,
	}
	for in, want := range ok {
		got, err := ParseMinorUnits(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	top, err := ParseMinorUnits("92233720368547758.07")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), top)

	for _, in := range []string{"", "abc", "-1.00", "-0.50", "+5", "1.234", "1.2.3", "1,00",
		"92233720368547758.08", "92233720368547759.00", "99999999999999999999"} {
		_, err := ParseMinorUnits(in)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, in)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "9.99", FormatMinorUnits(999))
	assert.Equal(t, "999.00", FormatMinorUnits(99900))
	assert.Equal(t, "0.05", FormatMinorUnits(5))
	assert.Equal(t, "-1.50", FormatMinorUnits(-150))

	for _, v := range []int64{1, 99, 100, 12345, 99900} {
		back, err := ParseMinorUnits(FormatMinorUnits(v))
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}
