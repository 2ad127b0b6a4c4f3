// Package dataset loads FinQA-style financial documents and flattens them
// into evaluable question/answer items.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// QABlock is one question/answer pair attached to a record.
type QABlock struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Record is one raw dataset entry: the document text before and after a
// financial table, the table itself, and up to three QA blocks.
type Record struct {
	ID       string     `json:"id"`
	PreText  []string   `json:"pre_text"`
	PostText []string   `json:"post_text"`
	Table    [][]string `json:"table"`
	QA       *QABlock   `json:"qa,omitempty"`
	QA0      *QABlock   `json:"qa_0,omitempty"`
	QA1      *QABlock   `json:"qa_1,omitempty"`
}

// Context is the rendered document context handed to the agents.
type Context struct {
	PreText  string
	Table    string
	PostText string
}

// Item is one evaluable unit: a question over a rendered context, with its
// ground-truth answer. Immutable once loaded.
type Item struct {
	ID          string
	Question    string
	GroundTruth string
	Context     Context
}

// qaKeys preserves the evaluation order of the original dataset layout.
var qaKeys = []string{"qa_0", "qa_1", "qa"}

// Items flattens a record's QA blocks into evaluable items. Block keys are
// appended to the record ID so multi-question records yield distinct IDs.
func (r Record) Items() []Item {
	rendered := Context{
		PreText:  ToParagraph(r.PreText),
		Table:    ToMarkdownTable(r.Table),
		PostText: ToParagraph(r.PostText),
	}

	blocks := map[string]*QABlock{"qa_0": r.QA0, "qa_1": r.QA1, "qa": r.QA}

	var items []Item
	for _, key := range qaKeys {
		block := blocks[key]
		if block == nil || strings.TrimSpace(block.Question) == "" {
			continue
		}
		id := r.ID
		if key != "qa" {
			id = fmt.Sprintf("%s/%s", r.ID, key)
		}
		items = append(items, Item{
			ID:          id,
			Question:    block.Question,
			GroundTruth: block.Answer,
			Context:     rendered,
		})
	}
	return items
}

// Load reads a JSON array of records and flattens it into items, in file
// order. maxRecords <= 0 means no limit.
func Load(path string, maxRecords int) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	if maxRecords > 0 && len(records) > maxRecords {
		records = records[:maxRecords]
	}

	var items []Item
	for _, record := range records {
		items = append(items, record.Items()...)
	}
	return items, nil
}
