package vma_test

import (
	"math"
	"testing"

	"github.com/KaramelBytes/vma-cli/internal/vma"
	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 1,250.5 ", 1250.5, true},
		{"39%", 0.39, true},
		{"12.5 %", 0.125, true},
		{"-3e2", -300, true},
		{"2500 / 1000", 2.5, true},
		{"=0.1*1000", 100, true},
		{"=50%*2", 1, true},
		{"1 000", 1000, true},
		{"", math.Inf(1), false},
		{"10-15%", math.Inf(1), false},
		{"10-15", math.Inf(1), false},
		{"n/a", math.Inf(1), false},
		{"5/0", math.Inf(1), false},
		{"NaN", math.Inf(1), false},
		{"%", math.Inf(1), false},
	}
	for _, c := range cases {
		got, ok := vma.ParseValue(c.in)
		assert.Equal(t, c.ok, ok, "ok for %q", c.in)
		if math.IsInf(c.want, 1) {
			assert.True(t, math.IsInf(got, 1), "%q should be +Inf, got %v", c.in, got)
			continue
		}
		assert.InDelta(t, c.want, got, 1e-12, "value for %q", c.in)
	}
}

func TestParseWeight(t *testing.T) {
	w, ok := vma.ParseWeight("")
	assert.True(t, ok)
	assert.Equal(t, 1.0, w)

	w, ok = vma.ParseWeight("0.25")
	assert.True(t, ok)
	assert.Equal(t, 0.25, w)

	w, ok = vma.ParseWeight("heavy")
	assert.False(t, ok)
	assert.Equal(t, 1.0, w)
}

func TestParseExclude(t *testing.T) {
	for _, s := range []string{"True", "yes", "Y", "x", "1", " TRUE "} {
		assert.True(t, vma.ParseExclude(s), s)
	}
	for _, s := range []string{"", "False", "no", "0", "maybe"} {
		assert.False(t, vma.ParseExclude(s), s)
	}
}

func TestParseKey(t *testing.T) {
	k, err := vma.ParseKey("")
	assert.NoError(t, err)
	assert.Equal(t, vma.KeyAll, k)

	k, err = vma.ParseKey(" Low ")
	assert.NoError(t, err)
	assert.Equal(t, vma.KeyLow, k)

	_, err = vma.ParseKey("avg")
	assert.ErrorIs(t, err, vma.ErrInvalidKey)
}
