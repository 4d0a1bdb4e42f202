package querymongo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/roach88/docdal/internal/query"
	"github.com/roach88/docdal/internal/testutil"
)

func TestGoldenTranslations(t *testing.T) {
	b := newBuilder(t)

	testCases := []struct {
		name      string
		translate func() (bson.D, error)
	}{
		{
			name: "filter_negated_and",
			translate: func() (bson.D, error) {
				return b.Filter(query.Not(query.And(query.Eq("status", statusActive), query.Gte("age", 18))))
			},
		},
		{
			name: "filter_identifiers",
			translate: func() (bson.D, error) {
				return b.Filter(query.In("id", hexA, hexB))
			},
		},
		{
			name: "filter_or_raw",
			translate: func() (bson.D, error) {
				return b.Filter(query.Or(
					query.Like("address.city", "^Ber"),
					query.Not(query.RawOp("tags", "$size", 0)),
				))
			},
		},
		{
			name: "update_nested",
			translate: func() (bson.D, error) {
				return b.Update(query.Set("status", "CLOSED").
					Add("address", query.Set("city", "X").Add("zip", "10115")))
			},
		},
		{
			name: "projection_default",
			translate: func() (bson.D, error) {
				return b.Projection(nil)
			},
		},
		{
			name: "sort_mixed",
			translate: func() (bson.D, error) {
				return b.Sort(query.Desc("status").ThenAsc("id"))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := tc.translate()
			require.NoError(t, err)
			testutil.AssertGolden(t, tc.name, doc)
		})
	}
}
