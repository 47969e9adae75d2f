package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamwatch/scamfeed/pkg/extract"
)

func TestParseAPIBody(t *testing.T) {
	t.Parallel()

	body := []byte(`{"totalResults": 2500, "items": [{"url": "https://scam.example.com"}, {"url": "other.net"}]}`)

	page, err := extract.ParseAPIBody(body)
	require.NoError(t, err)

	assert.Equal(t, 2500, page.TotalResults)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "https://scam.example.com", page.Items[0].URL)
}

func TestParseAPIBody_Invalid(t *testing.T) {
	t.Parallel()

	_, err := extract.ParseAPIBody([]byte("<html>not json</html>"))
	assert.Error(t, err)
}

func TestParseAPIBody_Sentinel(t *testing.T) {
	t.Parallel()

	// The fetcher substitutes empty JSON for failed endpoints; that must
	// decode cleanly to an empty page.
	page, err := extract.ParseAPIBody([]byte("{}"))
	require.NoError(t, err)
	assert.Zero(t, page.TotalResults)
	assert.Empty(t, page.Items)
}

func TestURLsFromAPIBodies(t *testing.T) {
	t.Parallel()

	bodies := [][]byte{
		[]byte(`{"items": [{"url": "https://a.example.com/"}, {"url": "b.example.net c.example.org"}]}`),
		[]byte(`{}`),
		[]byte(`{"items": [{"url": "a.example.com"}, {"other": "no url field"}]}`),
		[]byte(`not json at all`),
	}

	urls := extract.URLsFromAPIBodies(bodies)

	assert.Equal(t, []string{"a.example.com", "b.example.net", "c.example.org"}, urls)
}
