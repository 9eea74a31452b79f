package client_test

import (
	"context"
	"testing"

	"storefront/internal/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_BeginCancelsPrevious(t *testing.T) {
	s := client.NewSequencer()

	a := s.Begin(context.Background())
	b := s.Begin(context.Background())

	assert.Less(t, a.Seq, b.Seq)
	require.Error(t, a.Ctx.Err())
	assert.ErrorIs(t, a.Ctx.Err(), context.Canceled)
	assert.NoError(t, b.Ctx.Err())

	assert.False(t, s.IsCurrent(a.Seq))
	assert.True(t, s.IsCurrent(b.Seq))
}

func TestSequencer_ApplyOnlyCurrent(t *testing.T) {
	s := client.NewSequencer()

	a := s.Begin(context.Background())
	b := s.Begin(context.Background())

	var applied []uint64
	//B が先に返ってきて、A が後から返ってくる
	assert.True(t, s.Apply(b, func() { applied = append(applied, b.Seq) }))
	assert.False(t, s.Apply(a, func() { applied = append(applied, a.Seq) }))

	assert.Equal(t, []uint64{b.Seq}, applied)
}

func TestSequencer_Close(t *testing.T) {
	s := client.NewSequencer()
	a := s.Begin(context.Background())

	s.Close()
	assert.ErrorIs(t, a.Ctx.Err(), context.Canceled)

	//Close 後も番号は最新のまま
	assert.True(t, s.IsCurrent(a.Seq))
}
