package tagger

import (
	"context"
	"errors"
	"testing"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/go-playground/assert/v2"
)

func TestTagKeywordMatch(t *testing.T) {
	tg := New(StockMatchers())
	ctx := context.Background()

	tests := []struct {
		name       string
		title      string
		snippet    string
		wantFirst  string
		wantNumMin int
	}{
		{
			name:      "earnings headline",
			title:     "Nvidia beats estimates with record revenue",
			wantFirst: "earnings",
		},
		{
			name:      "guidance before earnings by matcher order",
			title:     "Nvidia raises guidance after earnings beat",
			wantFirst: "guidance",
		},
		{
			name:      "acquisition",
			title:     "Broadcom to acquire chip startup",
			wantFirst: "m_and_a_confirmed",
		},
		{
			name:      "no match falls back to other",
			title:     "Weekend reading list",
			wantFirst: "other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := tg.Tag(ctx, tt.title, tt.snippet, nil)
			assert.Equal(t, tt.wantFirst, model.PrimaryTag(tags))
		})
	}
}

func TestTagDeterminism(t *testing.T) {
	tg := New(StockMatchers())
	ctx := context.Background()

	title := "NVDA earnings: revenue up, guidance raised, faces antitrust probe"
	first := tg.Tag(ctx, title, "", []string{"NVDA"})
	second := tg.Tag(ctx, title, "", []string{"NVDA"})

	assert.Equal(t, first, second)
}

func TestTagConfidence(t *testing.T) {
	tg := New(StockMatchers())
	ctx := context.Background()

	// Keyword plus ticker identifier -> high.
	tags := tg.Tag(ctx, "NVDA beats estimates", "", []string{"NVDA", "Nvidia"})
	assert.Equal(t, model.ConfidenceHigh, tags[0].Confidence)

	// Keyword only -> medium.
	tags = tg.Tag(ctx, "Chipmaker beats estimates", "", []string{"NVDA", "Nvidia"})
	assert.Equal(t, model.ConfidenceMedium, tags[0].Confidence)

	// No keyword -> other, low.
	tags = tg.Tag(ctx, "Weekend reading list", "", []string{"NVDA"})
	assert.Equal(t, model.TagOther, tags[0].Name)
	assert.Equal(t, model.ConfidenceLow, tags[0].Confidence)
}

func TestTagMultipleMatchesUnion(t *testing.T) {
	tg := New(StockMatchers())
	ctx := context.Background()

	tags := tg.Tag(ctx, "Nvidia earnings beat, stock upgraded by analysts", "", nil)
	names := make(map[string]bool)
	for _, tag := range tags {
		names[tag.Name] = true
	}
	assert.Equal(t, true, names["earnings"])
	assert.Equal(t, true, names["analyst_change_major"])
}

type fakeClassifier struct {
	tag   string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string, _ []string) (string, error) {
	f.calls++
	return f.tag, f.err
}

func TestFallbackOnlyForUnmatched(t *testing.T) {
	ctx := context.Background()
	fb := &fakeClassifier{tag: "macro"}
	tg := New(StockMatchers()).WithFallback(fb)

	// Deterministic match: fallback must not run.
	tags := tg.Tag(ctx, "Nvidia beats estimates", "", nil)
	assert.Equal(t, "earnings", model.PrimaryTag(tags))
	assert.Equal(t, 0, fb.calls)

	// Unmatched: fallback chooses within the taxonomy.
	tags = tg.Tag(ctx, "Central bank commentary roundup", "", nil)
	assert.Equal(t, "macro", model.PrimaryTag(tags))
	assert.Equal(t, 1, fb.calls)
}

func TestFallbackErrorKeepsOther(t *testing.T) {
	ctx := context.Background()
	fb := &fakeClassifier{err: errors.New("api down")}
	tg := New(StockMatchers()).WithFallback(fb)

	tags := tg.Tag(ctx, "Weekend reading list", "", nil)
	assert.Equal(t, model.TagOther, model.PrimaryTag(tags))
}

func TestFallbackOutsideTaxonomyDiscarded(t *testing.T) {
	ctx := context.Background()
	fb := &fakeClassifier{tag: "made_up_tag"}
	tg := New(StockMatchers()).WithFallback(fb)

	tags := tg.Tag(ctx, "Weekend reading list", "", nil)
	assert.Equal(t, model.TagOther, model.PrimaryTag(tags))
}

func TestTopicMatchers(t *testing.T) {
	tg := New(TopicMatchers(
		[]string{"outage", "pricing"},
		[]string{"downtime", "price increase"},
	))
	ctx := context.Background()

	tags := tg.Tag(ctx, "Major downtime reported by users", "", nil)
	assert.Equal(t, 2, len(tags))
	assert.Equal(t, "outage", tags[0].Name)
}
