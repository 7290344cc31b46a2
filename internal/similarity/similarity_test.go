package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityBounds(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Kitchen Light", "kitchen light"))
	assert.Equal(t, 0.0, Similarity("", "anything"))
	assert.Equal(t, 0.0, Similarity("anything", ""))

	score := Similarity("Kitchen Light", "Kitchen Lamp")
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "Living Room Sensor", "Livingroom Senser"
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-9)
}

func TestDistanceIsLevenshtein(t *testing.T) {
	assert.Equal(t, 0, Distance("front door", "Front Door"))
	assert.Equal(t, 1, Distance("cat", "cats"))
	assert.Equal(t, 3, Distance("kitten", "sitting"))
}

func TestBestMatchStrictlyGreaterThanThreshold(t *testing.T) {
	candidates := []Candidate{
		{Key: "Kitchen Light", InsertionSeq: 0},
		{Key: "Kitchen Lamp", InsertionSeq: 1},
		{Key: "Garage Door", InsertionSeq: 2},
	}

	match, score, ok := BestMatch("kitchen light", candidates, 0.6)
	assert.True(t, ok)
	assert.Equal(t, "Kitchen Light", match.Key)
	assert.Equal(t, 1.0, score)

	_, _, ok = BestMatch("completely unrelated query string", candidates, 0.6)
	assert.False(t, ok)
}

func TestTopMatchesSortedAndTieBroken(t *testing.T) {
	candidates := []Candidate{
		{Key: "Light A", InsertionSeq: 5},
		{Key: "Light B", InsertionSeq: 2},
		{Key: "Light C", InsertionSeq: 9},
	}

	matches := TopMatches("Light X", candidates, 0.5, 0)
	require := assert.New(t)
	require.True(len(matches) >= 2)
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Score == matches[i].Score {
			require.Less(matches[i-1].Candidate.InsertionSeq, matches[i].Candidate.InsertionSeq)
		} else {
			require.Greater(matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestTopMatchesLimit(t *testing.T) {
	candidates := []Candidate{
		{Key: "Sensor 1", InsertionSeq: 0},
		{Key: "Sensor 2", InsertionSeq: 1},
		{Key: "Sensor 3", InsertionSeq: 2},
	}
	matches := TopMatches("Sensor", candidates, 0.0, 2)
	assert.Len(t, matches, 2)
}
