package prolog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/corpus"
	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
	"github.com/cognicore/horn/pkg/horn/prover"
)

func newChecker() *Checker {
	return &Checker{Engine: prover.New(prover.Options{MaxDepth: 10})}
}

func TestCrossCheckCriminal(t *testing.T) {
	kb := kbio.StandardizeApart(corpus.Criminal())
	ctx := context.Background()

	rep, err := newChecker().Check(ctx, kb, logic.P("criminal", logic.V("who")))
	require.NoError(t, err)
	assert.True(t, rep.Agree())
	assert.True(t, rep.Horn)
	assert.True(t, rep.Prolog)
	assert.Equal(t, "west", rep.HornBindings["who"])
	assert.Equal(t, "west", rep.PrologBindings["who"])

	rep, err = newChecker().Check(ctx, kb, logic.P("criminal", logic.C("east")))
	require.NoError(t, err)
	assert.True(t, rep.Agree())
	assert.False(t, rep.Horn)
	assert.False(t, rep.Prolog)
	assert.NotEmpty(t, rep.HornReason)
}

func TestCrossCheckUndefinedPredicateFails(t *testing.T) {
	rep, err := newChecker().Check(context.Background(), corpus.Criminal(), logic.P("spy", logic.C("west")))
	require.NoError(t, err)
	require.NoError(t, rep.PrologErr)
	assert.False(t, rep.Prolog)
	assert.True(t, rep.Agree())
}

func TestCrossCheckNilEngine(t *testing.T) {
	_, err := (&Checker{}).Check(context.Background(), corpus.Criminal(), logic.P("p"))
	assert.Error(t, err)
}
