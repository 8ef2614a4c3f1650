package catalog

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapErr(t *testing.T) {
	require.ErrorIs(t, mapErr("get", pgx.ErrNoRows), ErrNotFound)
	require.ErrorIs(t, mapErr("create", &pgconn.PgError{Code: "23505"}), ErrDuplicate)
	require.ErrorIs(t, mapErr("create", &pgconn.PgError{Code: "23503"}), ErrReferenced)
	require.ErrorIs(t, mapErr("get", &pgconn.PgError{Code: "22P02"}), ErrNotFound)

	boom := errors.New("boom")
	err := mapErr("update", boom)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "update")
}

func TestDescendantsToleratesCycles(t *testing.T) {
	a, b := "a", "b"
	all := []Category{
		{ID: "a", ParentID: &b},
		{ID: "b", ParentID: &a},
		{ID: "c", ParentID: &a},
	}
	require.ElementsMatch(t, []string{"a", "b", "c"}, descendants(all, "a"))
	require.True(t, createsCycle(all, "a", "c"))
	require.False(t, createsCycle(all, "c", "b"))
}
