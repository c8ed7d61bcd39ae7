package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxdash/backend/internal/application/dashboard"
	"github.com/vaxdash/backend/internal/domain/literature"
	"github.com/vaxdash/backend/internal/domain/vaccination"
	"github.com/vaxdash/backend/internal/infrastructure/chart"
	"github.com/vaxdash/backend/internal/infrastructure/frame"
)

func fp(v float64) *float64 { return &v }

type stubSource struct {
	err error
}

func (s stubSource) FetchRecords(context.Context, []string) (map[string][]vaccination.RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[string][]vaccination.RawRecord{
		"THA": {
			{Date: "2021-07-01", PerMillion: fp(1200.5)},
			{Date: "2021-07-02", PerMillion: fp(1534.25)},
			{Date: "2021-07-03"},
			{Date: "2021-07-04", PerMillion: fp(1402)},
		},
		"AUS": {{Date: "2021-07-01", PerMillion: fp(900)}},
	}, nil
}

func (s stubSource) FetchApprovals(context.Context) (vaccination.Approvals, error) {
	if s.err != nil {
		return nil, s.err
	}
	return vaccination.Approvals{"THA": "Oxford/AstraZeneca, Sinovac"}, nil
}

type stubSearcher struct {
	last literature.Query
}

func (s *stubSearcher) Search(_ context.Context, q literature.Query) (*literature.SearchResult, error) {
	s.last = q
	return &literature.SearchResult{
		Term:  q.Term,
		Count: 42,
		Publications: []literature.Publication{
			literature.NewPublication("34000001", "mRNA booster response"),
			literature.NewPublication("34000002", ""),
		},
	}, nil
}

func stubFactory(source vaccination.Source, searcher literature.Searcher) backendFactory {
	return func(context.Context, *options) (*backend, error) {
		return &backend{
			service: dashboard.NewService(source, searcher, frame.Reshape, chart.NewRenderer()),
			source:  source,
			query:   literature.DefaultQuery(),
		}, nil
	}
}

func execute(t *testing.T, factory backendFactory, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(factory)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSeriesCmd(t *testing.T) {
	factory := stubFactory(stubSource{}, &stubSearcher{})

	t.Run("default country", func(t *testing.T) {
		out, _, err := execute(t, factory, "series")
		require.NoError(t, err)

		assert.Contains(t, out, "Thailand (THA)")
		assert.Contains(t, out, "PER MILLION")
		assert.Contains(t, out, "2021-07-01")
		assert.NotContains(t, out, "2021-07-03")
		assert.Contains(t, out, "1534.25")
		assert.Contains(t, out, "Points: 3  Latest: 1402.00  Peak: 1534.25 on 2021-07-02  Mean: 1378.92")
	})

	t.Run("last rows by iso code", func(t *testing.T) {
		out, _, err := execute(t, factory, "series", "tha", "--last", "1")
		require.NoError(t, err)

		assert.Contains(t, out, "2021-07-04")
		assert.NotContains(t, out, "2021-07-01")
	})

	t.Run("empty series", func(t *testing.T) {
		out, _, err := execute(t, factory, "series", "--country", "New Zealand")
		require.NoError(t, err)
		assert.Contains(t, out, "No observations")
	})

	t.Run("unknown country", func(t *testing.T) {
		_, _, err := execute(t, factory, "series", "Atlantis")
		assert.ErrorIs(t, err, vaccination.ErrUnknownCountry)
	})

	t.Run("source failure", func(t *testing.T) {
		_, _, err := execute(t, stubFactory(stubSource{err: vaccination.ErrSourceUnavailable}, &stubSearcher{}), "series")
		assert.ErrorIs(t, err, vaccination.ErrSourceUnavailable)
	})
}

func TestApprovalsCmd(t *testing.T) {
	out, _, err := execute(t, stubFactory(stubSource{}, &stubSearcher{}), "approvals")
	require.NoError(t, err)

	assert.Contains(t, out, "Oxford/AstraZeneca, Sinovac")
	assert.Contains(t, out, "New Zealand")
	assert.Contains(t, out, vaccination.UnknownApprovals)
}

func TestPublicationsCmd(t *testing.T) {
	t.Run("markdown with defaults", func(t *testing.T) {
		searcher := &stubSearcher{}
		out, _, err := execute(t, stubFactory(stubSource{}, searcher), "publications")
		require.NoError(t, err)

		assert.Equal(t, literature.DefaultQuery(), searcher.last)
		assert.Contains(t, out, "The 10 latest publications related to COVID-19 vaccines from PubMed.gov")
		assert.Contains(t, out, "1. mRNA booster response [Link to PubMed](https://pubmed.ncbi.nlm.nih.gov/34000001/)")
		assert.Contains(t, out, "2. ? [Link to PubMed](https://pubmed.ncbi.nlm.nih.gov/34000002/)")
		assert.Contains(t, out, "42 matching publications")
	})

	t.Run("table with custom query", func(t *testing.T) {
		searcher := &stubSearcher{}
		out, _, err := execute(t, stubFactory(stubSource{}, searcher),
			"publications", "--term", "mRNA", "-n", "5", "--format", "table")
		require.NoError(t, err)

		assert.Equal(t, literature.Query{Term: "mRNA", MaxCount: 5}, searcher.last)
		assert.Contains(t, out, "PMID")
		assert.Contains(t, out, "34000002")
	})

	t.Run("invalid max", func(t *testing.T) {
		for _, arg := range []string{"--max=500", "--max=0", "--max=-3"} {
			searcher := &stubSearcher{}
			_, _, err := execute(t, stubFactory(stubSource{}, searcher), "publications", arg)
			assert.ErrorIs(t, err, literature.ErrInvalidMaxCount, arg)
			assert.Zero(t, searcher.last, arg)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := execute(t, stubFactory(stubSource{}, &stubSearcher{}), "publications", "-f", "xml")
		assert.Error(t, err)
	})
}

func TestRenderCmd(t *testing.T) {
	factory := stubFactory(stubSource{}, &stubSearcher{})

	t.Run("stdout", func(t *testing.T) {
		out, _, err := execute(t, factory, "render", "Thailand")
		require.NoError(t, err)
		assert.Contains(t, out, "<svg")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tha.svg")
		_, stderr, err := execute(t, factory, "render", "-o", path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
		assert.Contains(t, stderr, path)
	})

	t.Run("too few points", func(t *testing.T) {
		_, _, err := execute(t, factory, "render", "--country", "AUS")
		assert.True(t, errors.Is(err, vaccination.ErrInsufficientData))
	})
}

func TestRun_Timeout(t *testing.T) {
	blocking := func(ctx context.Context, _ *options) (*backend, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	_, _, err := execute(t, blocking, "approvals", "--timeout", "10ms")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultBackend_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[sources]\ndata_url = \"not a url\"\n"), 0o600))

	_, err := defaultBackend(context.Background(), &options{configPaths: []string{dir}, timeout: time.Second})
	assert.Error(t, err)
}
