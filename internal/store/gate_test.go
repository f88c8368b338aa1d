// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRow() types.MetadataRow {
	year := 2023
	return types.MetadataRow{
		JournalName:   "Geophysical Research Letters",
		DOI:           "10.1029/2023GL100001",
		Authors:       "Jane Doe",
		AuthorEmail:   "jane.doe@example.org",
		Title:         "Climate Action and Sea Level Rise",
		SourceURL:     "https://onlinelibrary.wiley.com/doi/pdfdirect/10.1029/2023GL100001?download=true",
		Keywords:      "climate,action",
		Topic:         "Climate",
		PublisherName: "WileyLibrary",
		Year:          &year,
	}
}

func TestGate_InsertThenDuplicate(t *testing.T) {
	s := openMemory(t)
	g := &Gate{Store: s, Logger: zap.NewNop()}
	ctx := context.Background()

	out, err := g.Submit(ctx, sampleRow())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	out, err = g.Submit(ctx, sampleRow())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, out)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same DOI and title is stored once")

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	want := sampleRow()
	want.HashValue = types.DedupHash(want.DOI, want.Title)
	assert.Equal(t, want, rows[0])
}

func TestGate_TitleChangeIsANewRow(t *testing.T) {
	s := openMemory(t)
	g := &Gate{Store: s}
	ctx := context.Background()

	_, err := g.Submit(ctx, sampleRow())
	require.NoError(t, err)

	edited := sampleRow()
	edited.Title += "."
	out, err := g.Submit(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	n, _ := s.Count(ctx)
	assert.Equal(t, 2, n)
}

func TestGate_HashIsRecomputed(t *testing.T) {
	s := openMemory(t)
	g := &Gate{Store: s}

	row := sampleRow()
	row.HashValue = "stale"
	_, err := g.Submit(context.Background(), row)
	require.NoError(t, err)

	exists, err := s.Exists(context.Background(), types.DedupHash(row.DOI, row.Title))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGate_NoDOI(t *testing.T) {
	fs := &fakeStore{}
	g := &Gate{Store: fs}

	row := sampleRow()
	row.DOI = ""
	out, err := g.Submit(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDOI, out)
	assert.Zero(t, fs.calls, "store is not consulted")
}

func TestGate_RequireEmail(t *testing.T) {
	fs := &fakeStore{}
	row := sampleRow()
	row.AuthorEmail = ""

	out, err := (&Gate{Store: fs, RequireEmail: true}).Submit(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoEmail, out)
	assert.Zero(t, fs.calls)

	out, err = (&Gate{Store: fs}).Submit(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)
}

func TestGate_StoreFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"exists fails", &fakeStore{existsErr: errors.New("connection refused")}},
		{"insert fails", &fakeStore{insertErr: errors.New("relation does not exist")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&Gate{Store: tt.store}).Submit(context.Background(), sampleRow())
			assert.Equal(t, OutcomeFailed, out)
			assert.True(t, errors.Is(err, types.ErrPersistence), "got %v", err)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", OutcomeInserted.String())
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
	assert.Equal(t, "no-doi", OutcomeNoDOI.String())
	assert.Equal(t, "no-email", OutcomeNoEmail.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}

type fakeStore struct {
	calls     int
	existsErr error
	insertErr error
}

func (f *fakeStore) Exists(context.Context, string) (bool, error) {
	f.calls++
	return false, f.existsErr
}

func (f *fakeStore) Insert(context.Context, types.MetadataRow) error {
	f.calls++
	return f.insertErr
}

func (f *fakeStore) Close() error { return nil }
