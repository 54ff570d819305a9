package memmap

import (
	"bytes"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/arena"
)

type fakeSource struct {
	blocks []alloc.Block
	size   int
}

func (f fakeSource) FreeBlocks() iter.Seq[alloc.Block] {
	return func(yield func(alloc.Block) bool) {
		for _, b := range f.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

func (f fakeSource) Size() int { return f.size }

func TestBuild_CoversArena(t *testing.T) {
	src := fakeSource{
		size: 1000,
		blocks: []alloc.Block{
			{Offset: 100, Size: 100},
			{Offset: 300, Size: 500},
		},
	}
	m := Build(src)

	require.Equal(t, []Region{
		{Kind: Used, Offset: 0, Size: 100},
		{Kind: Free, Offset: 100, Size: 100},
		{Kind: Used, Offset: 200, Size: 100},
		{Kind: Free, Offset: 300, Size: 500},
		{Kind: Used, Offset: 800, Size: 200},
	}, m.Regions)
	require.Equal(t, 600, m.FreeBytes())
	require.Equal(t, 400, m.UsedBytes())
	require.Equal(t, 2, m.FreeCount())
	require.Equal(t, Region{Kind: Free, Offset: 300, Size: 500}, m.Largest())
	require.InDelta(t, 1-500.0/600.0, m.Fragmentation(), 1e-9)
}

func TestBuild_FromFreeList(t *testing.T) {
	fl := alloc.NewFreeList(arena.New(1024).Bytes(), nil)

	m := Build(fl)
	require.Equal(t, []Region{{Kind: Free, Offset: 0, Size: 1024}}, m.Regions)
	require.Zero(t, m.Fragmentation())

	a, err := fl.Allocate(100, 1)
	require.NoError(t, err)
	_, err = fl.Allocate(100, 1)
	require.NoError(t, err)
	fl.Deallocate(a)

	m = Build(fl)
	require.Equal(t, []Region{
		{Kind: Free, Offset: 0, Size: 116},
		{Kind: Used, Offset: 116, Size: 116},
		{Kind: Free, Offset: 232, Size: 792},
	}, m.Regions)
	require.Equal(t, fl.UsedMemory(), m.UsedBytes())
}

func TestFragmentation_NothingFree(t *testing.T) {
	m := Build(fakeSource{size: 64})
	require.Equal(t, []Region{{Kind: Used, Offset: 0, Size: 64}}, m.Regions)
	require.Zero(t, m.Fragmentation())
	require.Equal(t, Region{}, m.Largest())
}

func TestRender(t *testing.T) {
	m := Build(fakeSource{
		size:   100,
		blocks: []alloc.Block{{Offset: 0, Size: 50}},
	})

	assert.Equal(t, ".....#####", m.Render(10))
	assert.Equal(t, ".#", m.Render(2))
	assert.Equal(t, "#", m.Render(0), "width clamps to 1")
	assert.Len(t, m.Render(1000), 100, "width clamps to arena size")
}

func TestRender_PartialCellCountsAsUsed(t *testing.T) {
	m := Build(fakeSource{
		size: 100,
		blocks: []alloc.Block{
			{Offset: 0, Size: 45},
			{Offset: 46, Size: 54},
		},
	})
	assert.Equal(t, "....#.....", m.Render(10))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "used", Used.String())
}

func TestWriteSummary_Localized(t *testing.T) {
	m := Build(fakeSource{
		size:   1 << 20,
		blocks: []alloc.Block{{Offset: 4096, Size: 1<<20 - 4096}},
	})

	var en bytes.Buffer
	require.NoError(t, WriteSummary(&en, m, language.English))
	assert.Contains(t, en.String(), "1,048,576 bytes")
	assert.Contains(t, en.String(), "4,096 bytes")
	assert.Equal(t, 5, strings.Count(en.String(), "\n"))

	var de bytes.Buffer
	require.NoError(t, WriteSummary(&de, m, language.German))
	assert.Contains(t, de.String(), "1.048.576 bytes")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestWriteSummary_WriteError(t *testing.T) {
	err := WriteSummary(failWriter{}, Build(fakeSource{size: 10}), language.English)
	require.ErrorIs(t, err, assert.AnError)
}
