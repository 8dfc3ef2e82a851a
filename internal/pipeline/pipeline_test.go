// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

var testDay = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

// fakeStore records every queue write in order.
type fakeStore struct {
	items        []types.QueueItem
	calls        []string
	failStatus   types.Status // SetStatus to this status fails
	failSaveErr  bool
	failDocRef   bool
	listErr      error
	lastErrorMsg string
}

func (s *fakeStore) ListItems(_ context.Context) ([]types.QueueItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

func (s *fakeStore) SetStatus(_ context.Context, item types.QueueItem, status types.Status) error {
	if s.failStatus != "" && status == s.failStatus {
		return fmt.Errorf("status write refused")
	}
	s.calls = append(s.calls, fmt.Sprintf("status:%d:%s", item.RowNumber, status))
	return nil
}

func (s *fakeStore) SaveDocRef(_ context.Context, item types.QueueItem, ref string) error {
	if s.failDocRef {
		return fmt.Errorf("doc ref write refused")
	}
	s.calls = append(s.calls, fmt.Sprintf("docref:%d:%s", item.RowNumber, ref))
	return nil
}

func (s *fakeStore) SaveOptimizationDate(_ context.Context, item types.QueueItem, day time.Time) error {
	s.calls = append(s.calls, fmt.Sprintf("date:%d:%s", item.RowNumber, day.Format("2006-01-02")))
	return nil
}

func (s *fakeStore) SaveError(_ context.Context, item types.QueueItem, msg string) error {
	if s.failSaveErr {
		return fmt.Errorf("error write refused")
	}
	s.lastErrorMsg = msg
	s.calls = append(s.calls, fmt.Sprintf("error:%d", item.RowNumber))
	return nil
}

type fakeSource struct {
	content string
	calls   int
}

func (s *fakeSource) FetchContent(_ context.Context, _ string) string {
	s.calls++
	return s.content
}

type fakeGatherer struct {
	bundle types.ResearchBundle
	err    error
	calls  int
}

func (g *fakeGatherer) Gather(_ context.Context, _ types.QueueItem) (types.ResearchBundle, error) {
	g.calls++
	if g.err != nil {
		return types.ResearchBundle{}, g.err
	}
	return g.bundle, nil
}

type fakeGenerator struct {
	brief      string
	article    string
	briefErr   error
	articleErr error
	gotBrief   string
}

func (g *fakeGenerator) GenerateBrief(_ context.Context, _ types.QueueItem, _ types.ResearchBundle, _ string) (string, error) {
	if g.briefErr != nil {
		return "", g.briefErr
	}
	return g.brief, nil
}

func (g *fakeGenerator) GenerateArticle(_ context.Context, _ types.QueueItem, _ types.ResearchBundle, brief, _ string) (string, error) {
	g.gotBrief = brief
	if g.articleErr != nil {
		return "", g.articleErr
	}
	return g.article, nil
}

type fakePublisher struct {
	ref        string
	err        error
	gotContent string
}

func (p *fakePublisher) Publish(_ context.Context, _, content string) (string, error) {
	p.gotContent = content
	if p.err != nil {
		return "", p.err
	}
	return p.ref, nil
}

type fakeRecorder struct {
	records []string
}

func (r *fakeRecorder) RecordItem(_ context.Context, item types.QueueItem, ok bool, errMsg string) error {
	r.records = append(r.records, fmt.Sprintf("%d:%t:%s", item.RowNumber, ok, errMsg))
	return nil
}

func pendingItem(row int, postID string) types.QueueItem {
	return types.QueueItem{
		RowNumber:     row,
		Title:         fmt.Sprintf("Post %d", row),
		PostID:        postID,
		TargetKeyword: "keyword",
		Status:        "Pending",
	}
}

func newTestPipeline(store *fakeStore) (*Pipeline, *fakeGenerator, *fakePublisher) {
	gen := &fakeGenerator{brief: "the brief", article: "# the article"}
	pub := &fakePublisher{ref: "https://docs.example/d/1"}
	p := &Pipeline{
		Store:     store,
		Source:    &fakeSource{content: "current content"},
		Gatherer:  &fakeGatherer{bundle: types.ResearchBundle{Questions: "q"}},
		Generator: gen,
		Publisher: pub,
		Out:       io.Discard,
		now:       func() time.Time { return testDay },
	}
	return p, gen, pub
}

func TestProcessItemHappyPath(t *testing.T) {
	store := &fakeStore{}
	p, gen, pub := newTestPipeline(store)
	item := pendingItem(2, "41")

	require.NoError(t, p.ProcessItem(context.Background(), item, false))

	assert.Equal(t, []string{
		"status:2:DataGathering",
		"status:2:Optimizing",
		"docref:2:https://docs.example/d/1",
		"date:2:2026-08-30",
		"status:2:Awaiting_Review",
	}, store.calls)
	assert.Equal(t, "the brief", gen.gotBrief, "article generation must receive the brief")
	assert.Equal(t, "# the article", pub.gotContent)
}

func TestProcessItemDryRunMakesNoCalls(t *testing.T) {
	store := &fakeStore{}
	p, _, _ := newTestPipeline(store)
	source := &fakeSource{}
	gatherer := &fakeGatherer{}
	p.Source = source
	p.Gatherer = gatherer

	require.NoError(t, p.ProcessItem(context.Background(), pendingItem(2, "41"), true))

	assert.Empty(t, store.calls)
	assert.Zero(t, source.calls)
	assert.Zero(t, gatherer.calls)
}

func TestProcessItemGatherFailure(t *testing.T) {
	store := &fakeStore{}
	p, _, _ := newTestPipeline(store)
	p.Gatherer = &fakeGatherer{err: errors.New("serp exploded")}

	err := p.ProcessItem(context.Background(), pendingItem(2, "41"), false)
	require.Error(t, err)

	assert.Equal(t, []string{"status:2:DataGathering", "error:2"}, store.calls)
	assert.Contains(t, store.lastErrorMsg, "gathering research")
	assert.Contains(t, store.lastErrorMsg, "serp exploded")
}

func TestProcessItemGenerationFailure(t *testing.T) {
	store := &fakeStore{}
	p, _, _ := newTestPipeline(store)
	p.Generator = &fakeGenerator{briefErr: errors.New("backend timeout")}

	err := p.ProcessItem(context.Background(), pendingItem(2, "41"), false)
	require.Error(t, err)

	// The item reached Optimizing before failing; the error write follows.
	assert.Equal(t, []string{"status:2:DataGathering", "status:2:Optimizing", "error:2"}, store.calls)
}

func TestProcessItemPublishFailure(t *testing.T) {
	store := &fakeStore{}
	p, _, _ := newTestPipeline(store)
	p.Publisher = &fakePublisher{err: errors.New("drive quota")}

	err := p.ProcessItem(context.Background(), pendingItem(2, "41"), false)
	require.Error(t, err)
	assert.Contains(t, store.lastErrorMsg, "drive quota")
}

func TestProcessItemSecondaryErrorWriteSwallowed(t *testing.T) {
	store := &fakeStore{failSaveErr: true}
	p, _, _ := newTestPipeline(store)
	p.Gatherer = &fakeGatherer{err: errors.New("primary failure")}
	var log strings.Builder
	p.Out = &log

	err := p.ProcessItem(context.Background(), pendingItem(2, "41"), false)

	// The returned error is still the primary failure, and the secondary
	// write failure is only logged.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary failure")
	assert.Contains(t, log.String(), "could not record error in queue")
}

func TestRunProcessesPendingInOrder(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{
		pendingItem(2, "41"),
		{RowNumber: 3, Status: "Awaiting_Review"},
		pendingItem(5, "42"),
		pendingItem(9, "43"),
	}}
	p, _, _ := newTestPipeline(store)
	recorder := &fakeRecorder{}
	p.Recorder = recorder

	summary, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Errored)
	assert.False(t, summary.HasFailures())
	assert.Equal(t, []string{"2:true:", "5:true:", "9:true:"}, recorder.records)
}

func TestRunContinuesAfterItemFailure(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{
		pendingItem(2, "41"),
		pendingItem(5, "42"),
	}}
	p, _, _ := newTestPipeline(store)
	// Publishing fails for every item; both items must still be attempted.
	p.Publisher = &fakePublisher{err: errors.New("quota")}

	summary, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Errored)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, 2, summary.Total())
}

func TestRunOnlyIDFilter(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{
		pendingItem(2, "41"),
		pendingItem(5, "42"),
	}}
	p, _, _ := newTestPipeline(store)
	recorder := &fakeRecorder{}
	p.Recorder = recorder

	summary, err := p.Run(context.Background(), Options{OnlyID: "42"})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total())
	assert.Equal(t, []string{"5:true:"}, recorder.records)
}

func TestRunLimitTruncates(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{
		pendingItem(2, "41"),
		pendingItem(5, "42"),
		pendingItem(9, "43"),
	}}
	p, _, _ := newTestPipeline(store)
	recorder := &fakeRecorder{}
	p.Recorder = recorder

	summary, err := p.Run(context.Background(), Options{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total())
	assert.Equal(t, []string{"2:true:", "5:true:"}, recorder.records)
}

func TestRunListFailurePropagates(t *testing.T) {
	store := &fakeStore{listErr: errors.New("sheet unreachable")}
	p, _, _ := newTestPipeline(store)

	_, err := p.Run(context.Background(), Options{})
	require.Error(t, err)
}

func TestRunEmptyQueue(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{{RowNumber: 2, Status: "Error"}}}
	p, _, _ := newTestPipeline(store)

	summary, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
}

func TestRunWritesArtifacts(t *testing.T) {
	store := &fakeStore{items: []types.QueueItem{pendingItem(2, "41")}}
	p, _, _ := newTestPipeline(store)

	writer, err := NewArtifactWriter(t.TempDir(), RunID(testDay))
	require.NoError(t, err)
	p.Artifacts = writer

	_, err = p.Run(context.Background(), Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(writer.Dir(), "row-2.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "doc_ref: https://docs.example/d/1")
	assert.Contains(t, string(data), "brief: the brief")
}
