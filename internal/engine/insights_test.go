package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightsNoneFactLeavesProfile(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{markCore: "None."}})
	f.addUser(t, "alice", "Retired nurse.")
	ctx := context.Background()

	assert.True(t, f.engine.Insights.Extract(ctx, "alice", "What's the weather?", "Sunny today."))

	u, err := f.db.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Retired nurse.", u.CoreInformation)
	assert.Empty(t, f.calls(markMerge))
}

func TestInsightsMergeReplacesWholeProfile(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markCore:  "The user now lives in Porto.",
		markMerge: `"Retired nurse who now lives in Porto."`,
	}})
	f.addUser(t, "alice", "Retired nurse who lives in Lisbon.")
	ctx := context.Background()

	assert.True(t, f.engine.Insights.Extract(ctx, "alice", "We moved to Porto", "How exciting!"))

	merges := f.calls(markMerge)
	require.Len(t, merges, 1)
	assert.Contains(t, merges[0], "Retired nurse who lives in Lisbon.")
	assert.Contains(t, merges[0], "The user now lives in Porto.")

	u, err := f.db.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Retired nurse who now lives in Porto.", u.CoreInformation)
}

func TestInsightsEmptyMergeKeepsProfile(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{
		markCore:  "Has a cat.",
		markMerge: "   ",
	}})
	f.addUser(t, "alice", "Likes tea.")
	ctx := context.Background()

	f.engine.Insights.Extract(ctx, "alice", "My cat is called Tom", "Lovely name.")

	u, err := f.db.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Likes tea.", u.CoreInformation)
}

func TestInsightsExtractionsAreIndependent(t *testing.T) {
	f := newFixture(t, script{
		replies: map[string]string{markMemory: "Went to a concert yesterday."},
		errs:    map[string]error{markCore: errors.New("overloaded")},
	})
	f.addUser(t, "alice", "")

	assert.True(t, f.engine.Insights.Extract(context.Background(), "alice", "The concert was great", "Glad you enjoyed it!"))
	assert.Equal(t, []string{"Went to a concert yesterday."}, f.recall.remembered)
}

func TestInsightsRememberFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{markMemory: "Baked bread this morning."}})
	f.recall.rememberErr = errors.New("recall service down")
	f.addUser(t, "alice", "")

	assert.True(t, f.engine.Insights.Extract(context.Background(), "alice", "I baked bread", "Smells great!"))
	assert.Len(t, f.recall.remembered, 1)
}

func TestInsightsNoneMemorySkipsRecall(t *testing.T) {
	f := newFixture(t, script{})
	f.addUser(t, "alice", "")

	assert.True(t, f.engine.Insights.Extract(context.Background(), "alice", "ok", "ok"))
	assert.Empty(t, f.recall.remembered)
}

func TestInsightsUnknownUser(t *testing.T) {
	f := newFixture(t, script{})
	assert.False(t, f.engine.Insights.Extract(context.Background(), "nobody", "hi", "hello"))
	assert.Empty(t, f.mock.Calls())
}

func TestRefineQuery(t *testing.T) {
	f := newFixture(t, script{replies: map[string]string{markRefine: ` "The user planted tomatoes."  `}})
	q, err := f.engine.Insights.RefineQuery(context.Background(), "How are my tomatoes?", "none", "none")
	require.NoError(t, err)
	assert.Equal(t, "The user planted tomatoes.", q)

	f = newFixture(t, script{replies: map[string]string{markRefine: "NONE"}})
	q, err = f.engine.Insights.RefineQuery(context.Background(), "hi", "none", "none")
	require.NoError(t, err)
	assert.Equal(t, "none", q)
}
