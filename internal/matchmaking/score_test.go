package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreValidate(t *testing.T) {
	cases := []struct {
		name  string
		score Score
		valid bool
	}{
		{
			name: "straight sets",
			score: Score{
				Sets:   []SetScore{{21, 15}, {21, 19}},
				Winner: "team1",
			},
			valid: true,
		},
		{
			name: "three sets with comeback",
			score: Score{
				Sets:   []SetScore{{21, 15}, {19, 21}, {23, 21}},
				Winner: "team1",
			},
			valid: true,
		},
		{
			name: "cap score 30-29",
			score: Score{
				Sets:   []SetScore{{30, 29}, {21, 10}},
				Winner: "team1",
			},
			valid: true,
		},
		{
			name: "team2 wins",
			score: Score{
				Sets:   []SetScore{{15, 21}, {22, 24}},
				Winner: "team2",
			},
			valid: true,
		},
		{
			name: "21-20 has no two point margin",
			score: Score{
				Sets:   []SetScore{{21, 20}, {21, 10}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "extended set must end on exactly two points",
			score: Score{
				Sets:   []SetScore{{25, 22}, {21, 10}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "30-28 is not a valid cap",
			score: Score{
				Sets:   []SetScore{{30, 28}, {21, 10}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "31 points never happens",
			score: Score{
				Sets:   []SetScore{{31, 29}, {21, 10}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "unfinished set",
			score: Score{
				Sets:   []SetScore{{15, 12}, {21, 10}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "one set is not a match",
			score: Score{
				Sets:   []SetScore{{21, 15}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "four sets is not a match",
			score: Score{
				Sets:   []SetScore{{21, 15}, {15, 21}, {21, 15}, {21, 15}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "set played after the match was decided",
			score: Score{
				Sets:   []SetScore{{21, 15}, {21, 19}, {21, 5}},
				Winner: "team1",
			},
			valid: false,
		},
		{
			name: "declared winner lost",
			score: Score{
				Sets:   []SetScore{{21, 15}, {21, 19}},
				Winner: "team2",
			},
			valid: false,
		},
		{
			name: "bogus winner label",
			score: Score{
				Sets:   []SetScore{{21, 15}, {21, 19}},
				Winner: "team3",
			},
			valid: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.score.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidScore)
			}
		})
	}
}
