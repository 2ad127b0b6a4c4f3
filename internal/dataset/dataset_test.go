package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToParagraph(t *testing.T) {
	require.Equal(t, "revenue grew . by 10% .", ToParagraph([]string{"revenue grew .", "by 10% ."}))
	require.Equal(t, "", ToParagraph(nil))
}

func TestToMarkdownTable(t *testing.T) {
	table := [][]string{
		{"year", "revenue"},
		{"2007", "1,234.5"},
		{"2008", "987"},
	}

	expected := "| year | revenue |\n" +
		"|----|-------|\n" +
		"| 2007 | 1,234.5 |\n" +
		"| 2008 | 987     |"

	require.Equal(t, expected, ToMarkdownTable(table))
}

func TestToMarkdownTableEmpty(t *testing.T) {
	require.Equal(t, "", ToMarkdownTable(nil))
}

func TestRecordItemsOrderAndIDs(t *testing.T) {
	record := Record{
		ID:      "ABC/2008/page_10.pdf",
		PreText: []string{"some", "text"},
		Table:   [][]string{{"a", "b"}, {"1", "2"}},
		QA:      &QABlock{Question: "third?", Answer: "3"},
		QA0:     &QABlock{Question: "first?", Answer: "1"},
		QA1:     &QABlock{Question: "second?", Answer: "2"},
	}

	items := record.Items()
	require.Len(t, items, 3)
	require.Equal(t, "ABC/2008/page_10.pdf/qa_0", items[0].ID)
	require.Equal(t, "ABC/2008/page_10.pdf/qa_1", items[1].ID)
	require.Equal(t, "ABC/2008/page_10.pdf", items[2].ID)
	require.Equal(t, "first?", items[0].Question)
	require.Equal(t, "some text", items[0].Context.PreText)
	require.Contains(t, items[0].Context.Table, "| a | b |")
}

func TestRecordItemsSkipsEmptyBlocks(t *testing.T) {
	record := Record{ID: "r1", QA: &QABlock{Question: "only?", Answer: "x"}}
	items := record.Items()
	require.Len(t, items, 1)
	require.Equal(t, "r1", items[0].ID)
}

func TestLoadAppliesRecordLimit(t *testing.T) {
	payload := `[
		{"id": "r1", "pre_text": ["a"], "post_text": ["b"], "table": [["h"],["v"]],
		 "qa": {"question": "q1?", "answer": "1"}},
		{"id": "r2", "pre_text": [], "post_text": [], "table": [],
		 "qa_0": {"question": "q2?", "answer": "2"},
		 "qa_1": {"question": "q3?", "answer": "3"}},
		{"id": "r3", "qa": {"question": "q4?", "answer": "4"}}
	]`
	path := filepath.Join(t.TempDir(), "train.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	items, err := Load(path, 2)
	require.NoError(t, err)
	require.Len(t, items, 3) // r1 has one item, r2 has two, r3 excluded by limit
	require.Equal(t, "r1", items[0].ID)
	require.Equal(t, "r2/qa_0", items[1].ID)
	require.Equal(t, "r2/qa_1", items[2].ID)

	all, err := Load(path, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), 0)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = Load(path, 0)
	require.Error(t, err)
}
