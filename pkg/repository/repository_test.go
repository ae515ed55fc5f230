package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/hourstay/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type room struct {
	ID    int64 `gorm:"primaryKey"`
	Hotel string
	Kind  string
	Rate  int64
}

func newStore(t *testing.T) (Repository[room], *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&room{}))
	return ProvideStore[room](db), db
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	require.NoError(t, store.BatchCreate(ctx, []*room{
		{ID: 1, Hotel: "Lakeside", Kind: "deluxe", Rate: 250000},
		{ID: 2, Hotel: "Lakeside", Kind: "suite", Rate: 400000},
		{ID: 3, Hotel: "Hilltop", Kind: "deluxe", Rate: 180000},
	}))

	rooms, err := store.Find(ctx, &room{Hotel: "Lakeside"}, option.WithOrder("rate DESC"))
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, int64(2), rooms[0].ID)

	limited, err := store.Find(ctx, nil, option.WithOrder("id ASC"), option.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(1), limited[0].ID)

	missing, err := store.FindOne(ctx, &room{Hotel: "Nowhere"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Update(ctx, int64(3), map[string]any{"rate": 190000}))
	updated, err := store.FindOne(ctx, &room{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(190000), updated.Rate)

	count, err := store.Count(ctx, &room{Kind: "deluxe"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.Delete(ctx, int64(1)))
	count, err = store.Count(ctx, &room{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStoreWithTrxRollback(t *testing.T) {
	ctx := context.Background()
	store, db := newStore(t)

	tx := db.Begin()
	require.NoError(t, store.WithTrx(tx).Create(ctx, &room{ID: 9, Hotel: "Temp"}))
	require.NoError(t, tx.Rollback().Error)

	found, err := store.FindOne(ctx, &room{ID: 9})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestOptionsSkipEmptyValues(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.Create(ctx, &room{ID: 1, Hotel: "Lakeside"}))

	rooms, err := store.Find(ctx, nil, option.WithEqual("hotel", ""), option.WithWhere("rate >= ?", 0))
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
