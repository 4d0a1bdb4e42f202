package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docdal/internal/render"
)

// AssertGolden renders v with render.JSON and compares it against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run the package tests with -update.
func AssertGolden(t *testing.T, name string, v any) {
	t.Helper()

	out, err := render.JSON(v)
	require.NoError(t, err, "render %s", name)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, out)
}
