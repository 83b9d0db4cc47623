package llm

import "context"

// SectionSummaryInput is the compact run digest a summary call sees.
// Only counts and headline samples cross the boundary; the engine
// output itself is never rewritten by a model.
type SectionSummaryInput struct {
	AIRedditCount    int
	AIRedditTitles   []string
	CompanyPostCount int
	CompanyNames     []string
}

type SectionSummaries struct {
	AIRedditSummary     string `json:"ai_reddit_summary"`
	CompanyWatchSummary string `json:"company_watch_summary"`
	ModelUsed           string `json:"-"`
}

// SectionSummarizer produces the optional prose summaries for the
// Reddit sections. One bounded call per run; failures leave the
// deterministic fallback summaries untouched.
type SectionSummarizer interface {
	SummarizeSections(ctx context.Context, input SectionSummaryInput) (*SectionSummaries, error)
}

// Classifier chooses one tag from a pre-approved taxonomy for a
// candidate the deterministic matchers could not place. It satisfies
// tagger.FallbackClassifier.
type Classifier interface {
	Classify(ctx context.Context, title, snippet string, taxonomy []string) (string, error)
}
