package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckOrder(t *testing.T) {
	assert.NoError(t, CheckOrder(nil))
	assert.NoError(t, CheckOrder([]Section{{ID: 1, OrderIndex: 1}, {ID: 2, OrderIndex: 0}}))
	assert.Error(t, CheckOrder([]Section{{ID: 1, OrderIndex: 0}, {ID: 2, OrderIndex: 0}}))
	assert.Error(t, CheckOrder([]Section{{ID: 1, OrderIndex: 0}, {ID: 2, OrderIndex: 2}}))
}

func TestCheckHistory(t *testing.T) {
	now := time.Now()

	assert.NoError(t, CheckHistory(Section{ID: 1}))
	assert.Error(t, CheckHistory(Section{ID: 1, Content: "orphan"}))

	ok := Section{
		ID:       1,
		Content:  "b",
		Revision: 2,
		History: []HistoryEntry{
			{Seq: 1, New: "a", Timestamp: now},
			{Seq: 2, Old: "a", New: "b", Timestamp: now},
		},
	}
	assert.NoError(t, CheckHistory(ok))

	stale := ok
	stale.Content = "a"
	assert.Error(t, CheckHistory(stale))

	backwards := ok
	backwards.History = []HistoryEntry{
		{Seq: 1, New: "a", Timestamp: now},
		{Seq: 2, Old: "a", New: "b", Timestamp: now.Add(-time.Second)},
	}
	assert.Error(t, CheckHistory(backwards))
}

func TestDefaultSectionTitles(t *testing.T) {
	assert.Equal(t, "Introduction", DefaultSectionTitles(DocTypeDocx)[0])
	assert.Equal(t, "Title Slide", DefaultSectionTitles(DocTypePptx)[0])
	assert.Len(t, DefaultSectionTitles(DocTypePptx), 5)
}
