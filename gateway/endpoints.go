package gateway

import (
	"context"
	"net/http"
)

// MatchProfile is the mentee profile submitted for mentor matching.
type MatchProfile struct {
	Role      string   `json:"role"`
	Goals     string   `json:"goals"`
	Interests []string `json:"interests"`
}

// DonorFacts are the verified facts a donor narrative is generated
// from.
type DonorFacts struct {
	DonorName  string   `json:"donorName"`
	Cause      string   `json:"cause"`
	Highlights []string `json:"highlights"`
}

// Health checks the AI backend. Cached briefly so widgets polling
// for availability do not hammer the service.
func (c *Client) Health(ctx context.Context) Result {
	return c.call(ctx, "health", http.MethodGet, nil, c.keyer.Key("health"))
}

// Summary produces a bullet summary with sentiment for free text.
func (c *Client) Summary(ctx context.Context, text string) Result {
	return c.call(ctx, "summary", http.MethodPost,
		map[string]string{"text": text},
		c.keyer.Key("summary", text))
}

// SuggestTopics proposes discussion topics for a set of interests.
// The set is unordered: equal sets in any order share a cache entry.
func (c *Client) SuggestTopics(ctx context.Context, interests []string) Result {
	return c.call(ctx, "topics", http.MethodPost,
		map[string]any{"interests": interests},
		c.keyer.KeySet("topics", interests))
}

// MatchMentors ranks mentors for a mentee profile.
func (c *Client) MatchMentors(ctx context.Context, profile MatchProfile) Result {
	return c.call(ctx, "match", http.MethodPost, profile,
		c.keyer.KeySet("match", profile.Interests, profile.Role, profile.Goals))
}

// Rewrite rewrites text in the requested tone.
func (c *Client) Rewrite(ctx context.Context, text, tone string) Result {
	return c.call(ctx, "rewrite", http.MethodPost,
		map[string]string{"text": text, "tone": tone},
		c.keyer.KeyWithSecondary("rewrite", text, tone))
}

// Insight extracts key insights from free text.
func (c *Client) Insight(ctx context.Context, text string) Result {
	return c.call(ctx, "insight", http.MethodPost,
		map[string]string{"text": text},
		c.keyer.Key("insight", text))
}

// LearningPath builds a learning path for the given goals at a
// difficulty level. Goals are an unordered set.
func (c *Client) LearningPath(ctx context.Context, goals []string, level string) Result {
	return c.call(ctx, "learning-path", http.MethodPost,
		map[string]any{"goals": goals, "level": level},
		c.keyer.KeySet("learning-path", goals, level))
}

// ThreadSummary summarizes a message thread. Message order is
// meaningful, so the key preserves it.
func (c *Client) ThreadSummary(ctx context.Context, messages []string) Result {
	return c.call(ctx, "thread-summary", http.MethodPost,
		map[string]any{"messages": messages},
		c.keyer.Key("thread-summary", messages...))
}

// OptimizeResume tailors a resume against a job description.
func (c *Client) OptimizeResume(ctx context.Context, resume, jobDescription string) Result {
	return c.call(ctx, "resume-optimize", http.MethodPost,
		map[string]string{"resume": resume, "jobDescription": jobDescription},
		c.keyer.KeyWithSecondary("resume-optimize", resume, jobDescription))
}

// AnalyzeEssay critiques an essay against its prompt.
func (c *Client) AnalyzeEssay(ctx context.Context, essay, prompt string) Result {
	return c.call(ctx, "essay-analyze", http.MethodPost,
		map[string]string{"essay": essay, "prompt": prompt},
		c.keyer.KeyWithSecondary("essay-analyze", essay, prompt))
}

// DonorStory generates a donor narrative from verified facts.
func (c *Client) DonorStory(ctx context.Context, facts DonorFacts) Result {
	return c.call(ctx, "donor-story", http.MethodPost, facts,
		c.keyer.KeySet("donor-story", facts.Highlights, facts.DonorName, facts.Cause))
}

// Moderate checks content against moderation rules. Never cached:
// every verdict must reflect the live content and current policy,
// so each call reaches the network even for identical input.
func (c *Client) Moderate(ctx context.Context, content string) Result {
	return c.call(ctx, "moderate", http.MethodPost,
		map[string]string{"content": content}, "")
}
