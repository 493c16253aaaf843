package stitcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_Transitions(t *testing.T) {
	testCases := []struct {
		from, to Stage
		allowed  bool
	}{
		{Idle, Registering, true},
		{Idle, Blending, false},
		{Registering, Aligned, true},
		{Registering, Failed, true},
		{Registering, Done, false},
		{Aligned, Blending, true},
		{Aligned, Failed, false},
		{Blending, Done, true},
		{Blending, Failed, true},
		{Done, Idle, false},
		{Failed, Registering, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "registering", Registering.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestStage_Terminal(t *testing.T) {
	for _, st := range []Stage{Idle, Registering, Aligned, Blending} {
		assert.False(t, st.Terminal(), st.String())
	}
	assert.True(t, Done.Terminal())
	assert.True(t, Failed.Terminal())
}

func TestRun_RejectsInvalidTransition(t *testing.T) {
	var seen []Stage
	r := &run{stage: Idle, log: Logger(), onStage: func(s Stage) { seen = append(seen, s) }}

	assert.Error(t, r.enter(Done))
	assert.Equal(t, Idle, r.stage)
	assert.Empty(t, seen)

	assert.NoError(t, r.enter(Registering))
	assert.Equal(t, Registering, r.stage)
	assert.Equal(t, []Stage{Registering}, seen)
}
