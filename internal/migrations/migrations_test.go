package migrations

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(files, "sql")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	up.Close()

	schema := string(body)
	assert.True(t, strings.Contains(schema, "CONSTRAINT items_stock_bounds"), "stock bounds constraint name is relied on by the repository")
	assert.Contains(t, schema, "ON DELETE SET NULL")

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}

func TestDownRejectsNonPositiveSteps(t *testing.T) {
	assert.Error(t, Down(nil, 0))
}
