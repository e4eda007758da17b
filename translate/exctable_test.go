/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddrysdale/jnm/classfile"
)

func TestBuildRegionsSingleFinally(t *testing.T) {
	rows := []classfile.ExceptionTableRow{
		{StartPC: 0, EndPC: 10, HandlerPC: 10, CatchType: 0},
	}
	regions, err := BuildRegions(rows, nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.True(t, regions[0].Catches[0].IsFinally())
	assert.Equal(t, uint16(10), regions[0].Catches[0].HandlerPC)
}

func TestBuildRegionsKeepsDistinctFinallyHandlers(t *testing.T) {
	// Two finally rows over the same JVM range but different handler_pc
	// values are genuinely distinct handlers and stay as two regions.
	rows := []classfile.ExceptionTableRow{
		{StartPC: 0, EndPC: 10, HandlerPC: 10, CatchType: 0},
		{StartPC: 0, EndPC: 10, HandlerPC: 20, CatchType: 0},
	}
	regions, err := BuildRegions(rows, nil)
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestBuildRegionsWidensSharedFinallyHandler(t *testing.T) {
	// javac splinters one source-level finally into several rows covering
	// adjacent ranges, all pointing at the same handler. They merge into
	// one region spanning (min start_pc, max end_pc), so no two finally
	// rows share a handler_pc afterwards.
	rows := []classfile.ExceptionTableRow{
		{StartPC: 0, EndPC: 8, HandlerPC: 30, CatchType: 0},
		{StartPC: 12, EndPC: 24, HandlerPC: 30, CatchType: 0},
	}
	regions, err := BuildRegions(rows, nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, uint16(0), regions[0].StartPC)
	assert.Equal(t, uint16(24), regions[0].EndPC)
	require.Len(t, regions[0].Catches, 1)
	assert.True(t, regions[0].Catches[0].IsFinally())
}

func TestBuildRegionsMergesIdenticalHandler(t *testing.T) {
	// Duplicate finally rows over the same range and handler collapse
	// into a single region with one catch.
	rows := []classfile.ExceptionTableRow{
		{StartPC: 0, EndPC: 10, HandlerPC: 20, CatchType: 0},
		{StartPC: 0, EndPC: 10, HandlerPC: 20, CatchType: 0},
	}
	regions, err := BuildRegions(rows, nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Len(t, regions[0].Catches, 1)
}

func TestBuildRegionsPreservesAscendingStartPCOrder(t *testing.T) {
	rows := []classfile.ExceptionTableRow{
		{StartPC: 0, EndPC: 5, HandlerPC: 5, CatchType: 0},
		{StartPC: 10, EndPC: 20, HandlerPC: 20, CatchType: 0},
	}
	regions, err := BuildRegions(rows, nil)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, uint16(0), regions[0].StartPC)
	assert.Equal(t, uint16(10), regions[1].StartPC)
}

func TestCatchIsFinally(t *testing.T) {
	assert.True(t, Catch{ClassName: ""}.IsFinally())
	assert.False(t, Catch{ClassName: "java/lang/Exception"}.IsFinally())
}
