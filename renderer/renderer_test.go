package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ByLCY/facture/layout"
)

type countingSurface struct {
	pushes, pops int
}

func (s *countingSurface) Push() { s.pushes++ }
func (s *countingSurface) Pop()  { s.pops++ }
func (s *countingSurface) DrawImage(layout.ImageSource, float64, float64, float64, float64) error {
	return nil
}

func TestWithStateRestoresOnEveryExit(t *testing.T) {
	boom := errors.New("boom")
	cases := map[string]struct {
		fn      func() error
		wantErr bool
	}{
		"success": {fn: func() error { return nil }},
		"error":   {fn: func() error { return boom }, wantErr: true},
		"panic":   {fn: func() error { panic("draw failed") }, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := &countingSurface{}
			err := WithState(s, tc.fn)
			assert.Equal(t, 1, s.pushes)
			assert.Equal(t, 1, s.pops)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithStateKeepsErrorIdentity(t *testing.T) {
	boom := errors.New("boom")
	err := WithState(&countingSurface{}, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	err = WithState(&countingSurface{}, func() error { panic("draw failed") })
	assert.ErrorContains(t, err, "draw failed")
}

func TestHooksFor(t *testing.T) {
	var calls []string
	first := func(Surface, PageInfo) error { calls = append(calls, "first"); return nil }
	later := func(Surface, PageInfo) error { calls = append(calls, "later"); return nil }
	h := Hooks{FirstPage: first, LaterPages: later}

	for n := 1; n <= 3; n++ {
		assert.NoError(t, h.For(n)(&countingSurface{}, PageInfo{Number: n}))
	}
	assert.Equal(t, []string{"first", "later", "later"}, calls)
	assert.Nil(t, Hooks{}.For(2))
}
