package catalog

import (
	"context"
	"errors"
	"testing"

	"bookshelf/internal/auth"
	"bookshelf/internal/platform/postgres"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func duneCandidate() Candidate {
	return Candidate{
		ExternalID: "gb123",
		ISBN:       "9780441013593",
		Title:      "Dune",
		Author:     "Frank Herbert",
		PageCount:  896,
		Raw:        []byte(`{"id":"gb123"}`),
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	existing := Entry{ID: "book-1", ExternalID: strPtr("gb123"), ISBN: strPtr("9780441013593"), Title: "Dune", CreatedBy: "someone"}

	t.Run("returns entry matched by external id unchanged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(existing, true, nil)

		got, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	})

	t.Run("falls back to isbn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByExternalID(gomock.Any(), "gb999").Return(Entry{}, false, nil)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(existing, true, nil)

		c := duneCandidate()
		c.ExternalID = "gb999"
		got, err := NewResolver(repo).Resolve(ctx, c, "u1")
		require.NoError(t, err)
		assert.Equal(t, "book-1", got.ID)
	})

	t.Run("isbn only candidate with separators", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(existing, true, nil)

		c := Candidate{ISBN: "978-0-441-01359-3", Title: "Dune"}
		got, err := NewResolver(repo).Resolve(ctx, c, "u1")
		require.NoError(t, err)
		assert.Equal(t, "book-1", got.ID)
	})

	t.Run("creates entry with creator when nothing matches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(Entry{}, false, nil)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(Entry{}, false, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), []byte(`{"id":"gb123"}`)).
			DoAndReturn(func(_ context.Context, e *Entry, _ []byte) error {
				assert.Equal(t, "u1", e.CreatedBy)
				assert.Equal(t, "gb123", *e.ExternalID)
				assert.Equal(t, "9780441013593", *e.ISBN)
				assert.Equal(t, 896, *e.PageCount)
				e.ID = "book-new"
				return nil
			}).Times(1)

		got, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "book-new", got.ID)
		assert.Equal(t, "u1", got.CreatedBy)
	})

	t.Run("candidate without identifiers is created without lookups", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e *Entry, _ []byte) error {
				assert.Nil(t, e.ExternalID)
				assert.Nil(t, e.ISBN)
				assert.Nil(t, e.PageCount)
				e.ID = "book-anon"
				return nil
			})

		got, err := NewResolver(repo).Resolve(ctx, Candidate{Title: "Pamphlet"}, "u1")
		require.NoError(t, err)
		assert.Equal(t, "book-anon", got.ID)
	})

	t.Run("lost insert race returns the winner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		gomock.InOrder(
			repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(Entry{}, false, nil),
			repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(Entry{}, false, nil),
			repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(ErrDuplicateEntry),
			repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(existing, true, nil),
		)

		got, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "book-1", got.ID)
	})

	t.Run("lost insert race without visible winner is a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(Entry{}, false, nil).Times(2)
		repo.EXPECT().FindByISBN(gomock.Any(), "9780441013593").Return(Entry{}, false, nil).Times(2)
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(ErrDuplicateEntry)

		_, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		assert.ErrorIs(t, err, ErrDuplicateEntry)
	})

	t.Run("lookup failure is a persistence error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		dbErr := postgres.Wrap("find catalog entry", errors.New("connection reset"))
		repo.EXPECT().FindByExternalID(gomock.Any(), "gb123").Return(Entry{}, false, dbErr)

		_, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		assert.ErrorIs(t, err, postgres.ErrPersistence)
	})

	t.Run("insert failure is reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)
		repo.EXPECT().FindByExternalID(gomock.Any(), gomock.Any()).Return(Entry{}, false, nil)
		repo.EXPECT().FindByISBN(gomock.Any(), gomock.Any()).Return(Entry{}, false, nil)
		repo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(postgres.Wrap("create catalog entry", errors.New("disk full")))

		_, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "u1")
		assert.ErrorIs(t, err, postgres.ErrPersistence)
	})

	t.Run("requires a creator", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := NewMockRepository(ctrl)

		_, err := NewResolver(repo).Resolve(ctx, duneCandidate(), "")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780441013593", NormalizeISBN(" 978-0-441-01359-3 "))
	assert.Equal(t, "044101359X", NormalizeISBN("0 441 01359 x"))
	assert.Equal(t, "", NormalizeISBN(""))
}
