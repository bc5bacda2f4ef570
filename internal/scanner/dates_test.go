package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// T5 (§8): ParseDateString accepts the handful of ID3/MusicBrainz date
// shapes and rejects free-text.
func TestParseDateString(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantOK  bool
		year    int
	}{
		{"bare year", "1994", true, 1994},
		{"year-month", "2021-09", true, 2021},
		{"full date", "1997-05-12", true, 1997},
		{"timestamp with Z", "2001-12-31T23:29:59Z", true, 2001},
		{"timestamp with +hhmm", "2015-07-15T16:54:33+0100", true, 2015},
		{"timestamp with -hhmm", "2016-08-29T21:32:06-0700", true, 2016},
		{"free text is rejected", "Some point in the 21st Century", false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDateString(tc.input)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				require.Equal(t, tc.year, got.Year())
			}
		})
	}
}

func TestReleaseYear(t *testing.T) {
	year, ok := ReleaseYear("2015-07-15T16:54:33+0100")
	require.True(t, ok)
	require.Equal(t, 2015, year)

	_, ok = ReleaseYear("not a date")
	require.False(t, ok)
}
