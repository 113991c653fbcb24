package nlsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_StrictJSON(t *testing.T) {
	raw := `  {"sql": " SELECT movie_id FROM movie WHERE rating >= 9.0 ", "interpretation": "评分9分以上", ` +
		`"conditions": {"genre": null, "min_rating": 9.0, "keywords": ["大海"]}}  `

	p := ParseResponse(raw)
	require.True(t, p.Found)
	assert.Equal(t, "SELECT movie_id FROM movie WHERE rating >= 9.0", p.SQL)
	assert.Equal(t, "评分9分以上", p.Interpretation)
	assert.Empty(t, p.Discarded)
}

func TestParseResponse_MissingInterpretation(t *testing.T) {
	p := ParseResponse(`{"sql": "select 1"}`)
	require.True(t, p.Found)
	assert.Equal(t, "select 1", p.SQL)
	assert.Equal(t, InterpretationDefault, p.Interpretation)
}

func TestParseResponse_FencedJSON(t *testing.T) {
	raw := "好的，查询如下：\n```json\n{\"sql\": \"SELECT * FROM movie LIMIT 5\", \"interpretation\": \"前五部\"}\n```\n"

	p := ParseResponse(raw)
	require.True(t, p.Found)
	assert.Equal(t, "SELECT * FROM movie LIMIT 5", p.SQL)
	assert.Equal(t, "前五部", p.Interpretation)
}

func TestParseResponse_FencedNestedObject(t *testing.T) {
	raw := "```\n{\"sql\": \"SELECT 1\", \"conditions\": {\"genre\": \"科幻\"}}\n```"

	p := ParseResponse(raw)
	require.True(t, p.Found)
	assert.Equal(t, "SELECT 1", p.SQL)
}

func TestParseResponse_TextScanStopsAtFence(t *testing.T) {
	raw := "Here is the query:\nSELECT movie_id, cn_title FROM movie WHERE rating > 9\n```\nenjoy"

	p := ParseResponse(raw)
	require.True(t, p.Found)
	assert.Equal(t, "SELECT movie_id, cn_title FROM movie WHERE rating > 9", p.SQL)
	assert.Equal(t, InterpretationExtracted, p.Interpretation)
}

func TestParseResponse_TextScanEarliestTerminatorWins(t *testing.T) {
	raw := "select cn_title from movie\n\nmore text ``` trailing"

	p := ParseResponse(raw)
	require.True(t, p.Found)
	assert.Equal(t, "select cn_title from movie", p.SQL)
}

func TestParseResponse_TextScanCRLF(t *testing.T) {
	p := ParseResponse("SELECT 1 FROM movie\r\n\r\nexplanation")
	require.True(t, p.Found)
	assert.Equal(t, "SELECT 1 FROM movie", p.SQL)
}

func TestParseResponse_TextScanTrimsTrailingCommas(t *testing.T) {
	p := ParseResponse("query: SELECT movie_id FROM movie,, \n\n")
	require.True(t, p.Found)
	assert.Equal(t, "SELECT movie_id FROM movie", p.SQL)
}

func TestParseResponse_TextScanAfterMultibyteText(t *testing.T) {
	p := ParseResponse("查询语句是 Select cn_title FROM movie")
	require.True(t, p.Found)
	assert.Equal(t, "Select cn_title FROM movie", p.SQL)
}

func TestParseResponse_NonSelectJSONIsDiscarded(t *testing.T) {
	p := ParseResponse(`{"sql": "DELETE FROM movie", "interpretation": "删除"}`)
	assert.False(t, p.Found)
	assert.Equal(t, "DELETE FROM movie", p.Discarded)
	assert.Equal(t, InterpretationUnparsed, p.Interpretation)
	assert.Empty(t, p.SQL)
}

func TestParseResponse_Unparsable(t *testing.T) {
	for _, raw := range []string{"", "   ", "抱歉，我无法理解这个请求", "null", "[1, 2]", "```json\n{broken\n```"} {
		p := ParseResponse(raw)
		assert.False(t, p.Found, "raw=%q", raw)
		assert.Equal(t, InterpretationUnparsed, p.Interpretation, "raw=%q", raw)
		assert.Empty(t, p.Discarded, "raw=%q", raw)
	}
}

func TestParseResponse_FoundAlwaysStartsWithSelect(t *testing.T) {
	inputs := []string{
		`{"sql": "SELECT 1"}`,
		`{"sql": "UPDATE movie SET rating = 0"}`,
		"selector: SELECT 2",
		"```sql\nSELECT 3\n```",
		"DROP TABLE movie; SELECT 4",
		"'; DROP TABLE movie; --",
	}
	for _, raw := range inputs {
		p := ParseResponse(raw)
		if p.Found {
			assert.True(t, hasSelectPrefix(p.SQL), "raw=%q sql=%q", raw, p.SQL)
		}
	}
}

func TestScanText_NoSelect(t *testing.T) {
	_, ok := scanText("INSERT INTO movie VALUES (1)")
	assert.False(t, ok)
}

func TestIndexFoldASCII(t *testing.T) {
	assert.Equal(t, 0, indexFoldASCII("SeLeCt", "SELECT"))
	assert.Equal(t, len("中文 "), indexFoldASCII("中文 select", "SELECT"))
	assert.Equal(t, -1, indexFoldASCII("SELEC", "SELECT"))
}
