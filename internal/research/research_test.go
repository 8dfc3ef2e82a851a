// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/content-engine/pkg/types"
)

type fakeQuestionSource struct {
	digest string
	urls   []string
}

func (f *fakeQuestionSource) Questions(_ context.Context, _ string) (string, []string) {
	return f.digest, f.urls
}

type fakeCompetitiveSource struct{ text string }

func (f *fakeCompetitiveSource) Research(_ context.Context, _, _ string) string { return f.text }

type fakeAnalyzer struct {
	text    string
	gotURLs []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, urls []string, _, _ string) string {
	f.gotURLs = urls
	return f.text
}

type fakeStore struct {
	questionData    string
	competitiveData string
	questionErr     error
	competitiveErr  error
}

func (f *fakeStore) SaveQuestionData(_ context.Context, _ types.QueueItem, digest string) error {
	if f.questionErr != nil {
		return f.questionErr
	}
	f.questionData = digest
	return nil
}

func (f *fakeStore) SaveCompetitiveData(_ context.Context, _ types.QueueItem, text string) error {
	if f.competitiveErr != nil {
		return f.competitiveErr
	}
	f.competitiveData = text
	return nil
}

func newTestGatherer(store *fakeStore) (*Gatherer, *fakeAnalyzer) {
	analyzer := &fakeAnalyzer{text: "competitor analysis"}
	g := &Gatherer{
		Questions:   &fakeQuestionSource{digest: "PAA digest", urls: []string{"https://c.example"}},
		Competitive: &fakeCompetitiveSource{text: "provider research"},
		Competitors: analyzer,
		Store:       store,
		Out:         io.Discard,
	}
	return g, analyzer
}

func TestGatherPersistsDigestAndCombinedResearch(t *testing.T) {
	store := &fakeStore{}
	g, analyzer := newTestGatherer(store)
	item := types.QueueItem{RowNumber: 2, Title: "Title", TargetKeyword: "keyword", KeywordMetrics: "volume 2400"}

	bundle, err := g.Gather(context.Background(), item)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	if store.questionData != "PAA digest" {
		t.Errorf("persisted digest = %q", store.questionData)
	}
	if len(analyzer.gotURLs) != 1 || analyzer.gotURLs[0] != "https://c.example" {
		t.Errorf("analyzer URLs = %v", analyzer.gotURLs)
	}

	if bundle.Questions != "PAA digest" {
		t.Errorf("bundle questions = %q", bundle.Questions)
	}
	if bundle.KeywordMetrics != "volume 2400" {
		t.Errorf("bundle metrics = %q", bundle.KeywordMetrics)
	}
	if !strings.HasPrefix(bundle.Competitive, "provider research") ||
		!strings.Contains(bundle.Competitive, "COMPETITOR PAGE ANALYSIS") ||
		!strings.HasSuffix(bundle.Competitive, "competitor analysis") {
		t.Errorf("combined text malformed:\n%s", bundle.Competitive)
	}
	if store.competitiveData != bundle.Competitive {
		t.Error("persisted competitive text differs from bundle")
	}
}

func TestGatherBlankMetricsUsesPlaceholder(t *testing.T) {
	g, _ := newTestGatherer(&fakeStore{})
	item := types.QueueItem{RowNumber: 2, TargetKeyword: "keyword"}

	bundle, err := g.Gather(context.Background(), item)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if bundle.KeywordMetrics != keywordMetricsPlaceholder {
		t.Errorf("metrics = %q, want placeholder", bundle.KeywordMetrics)
	}
}

func TestGatherDigestSaveFailureAborts(t *testing.T) {
	store := &fakeStore{questionErr: errors.New("write refused")}
	g, analyzer := newTestGatherer(store)

	_, err := g.Gather(context.Background(), types.QueueItem{RowNumber: 2, TargetKeyword: "kw"})
	if err == nil {
		t.Fatal("expected error from digest save failure")
	}
	if analyzer.gotURLs != nil {
		t.Error("competitor analysis ran after digest save failed")
	}
}

func TestGatherCompetitiveSaveFailurePropagates(t *testing.T) {
	store := &fakeStore{competitiveErr: errors.New("write refused")}
	g, _ := newTestGatherer(store)

	_, err := g.Gather(context.Background(), types.QueueItem{RowNumber: 2, TargetKeyword: "kw"})
	if err == nil {
		t.Fatal("expected error from competitive save failure")
	}
	// The digest write preceded the failure; partial progress survives.
	if store.questionData != "PAA digest" {
		t.Error("digest should have been persisted before the failure")
	}
}
