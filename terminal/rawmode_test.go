package terminal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMode records mode changes as strings
type fakeMode struct {
	cur    string
	sets   []string
	getErr error
	setErr error
}

func (f *fakeMode) getMode() (modeState, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cur, nil
}

func (f *fakeMode) setMode(s modeState) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.cur = s.(string)
	f.sets = append(f.sets, f.cur)
	return nil
}

func (f *fakeMode) makeMode(orig modeState, cfg ModeConfig) modeState {
	if cfg.Echo {
		return orig.(string) + "+raw+echo"
	}
	return orig.(string) + "+raw"
}

func TestRawController_EnterRelease(t *testing.T) {
	dev := &fakeMode{cur: "cooked"}
	c := newRawController(dev, nil)
	assert.False(t, c.Active())

	g, err := c.Enter(ModeConfig{})
	require.NoError(t, err)
	assert.True(t, c.Active())
	assert.Equal(t, "cooked+raw", dev.cur)

	require.NoError(t, g.Release())
	assert.False(t, c.Active())
	assert.Equal(t, "cooked", dev.cur)

	// Idempotent
	require.NoError(t, g.Release())
	assert.Equal(t, []string{"cooked+raw", "cooked"}, dev.sets)
}

func TestRawController_Nesting(t *testing.T) {
	dev := &fakeMode{cur: "cooked"}
	c := newRawController(dev, nil)

	outer, err := c.Enter(ModeConfig{})
	require.NoError(t, err)
	inner, err := c.Enter(ModeConfig{Echo: true})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, ModeConfig{}, c.Config(), "nested entry keeps the outer config")
	assert.Equal(t, "cooked+raw", dev.cur)

	require.NoError(t, inner.Release())
	assert.Equal(t, "cooked+raw", dev.cur, "inner release keeps raw mode")
	assert.True(t, c.Active())

	require.NoError(t, outer.Release())
	assert.Equal(t, "cooked", dev.cur)
	assert.Len(t, dev.sets, 2, "one set on entry, one on restore")
}

func TestRawController_RestoreAnyDepth(t *testing.T) {
	dev := &fakeMode{cur: "cooked"}
	c := newRawController(dev, nil)

	g1, _ := c.Enter(ModeConfig{})
	g2, _ := c.Enter(ModeConfig{})

	require.NoError(t, c.Restore())
	assert.Equal(t, "cooked", dev.cur)
	assert.Equal(t, 0, c.Depth())

	// Outstanding guards are no-ops
	require.NoError(t, g2.Release())
	require.NoError(t, g1.Release())
	require.NoError(t, c.Restore())
	assert.Len(t, dev.sets, 2)
}

func TestRawController_StaleGuardAfterRestore(t *testing.T) {
	dev := &fakeMode{cur: "cooked"}
	c := newRawController(dev, nil)

	stale, err := c.Enter(ModeConfig{})
	require.NoError(t, err)
	require.NoError(t, c.Restore())

	fresh, err := c.Enter(ModeConfig{})
	require.NoError(t, err)

	require.NoError(t, stale.Release())
	assert.True(t, c.Active(), "a guard from before Restore does not end a later entry")
	assert.Equal(t, 1, c.Depth())
	assert.Equal(t, "cooked+raw", dev.cur)

	require.NoError(t, fresh.Release())
	assert.False(t, c.Active())
	assert.Equal(t, "cooked", dev.cur)
}

func TestRawController_Reapply(t *testing.T) {
	dev := &fakeMode{cur: "cooked"}
	c := newRawController(dev, nil)

	require.NoError(t, c.Reapply())
	assert.Empty(t, dev.sets, "nothing to reapply while inactive")

	g, err := c.Enter(ModeConfig{Echo: true})
	require.NoError(t, err)

	// Job control reset the device behind our back
	dev.cur = "cooked"
	require.NoError(t, c.Reapply())
	assert.Equal(t, "cooked+raw+echo", dev.cur)

	require.NoError(t, g.Release())
	assert.Equal(t, "cooked", dev.cur)
}

func TestRawController_Errors(t *testing.T) {
	boom := errors.New("boom")

	dev := &fakeMode{cur: "cooked", getErr: boom}
	c := newRawController(dev, nil)
	_, err := c.Enter(ModeConfig{})
	var modeErr *ModeError
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, "get", modeErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Active())

	dev = &fakeMode{cur: "cooked", setErr: boom}
	c = newRawController(dev, nil)
	_, err = c.Enter(ModeConfig{})
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, "set", modeErr.Op)
	assert.False(t, c.Active())

	dev = &fakeMode{cur: "cooked"}
	c = newRawController(dev, nil)
	g, err := c.Enter(ModeConfig{})
	require.NoError(t, err)
	dev.setErr = boom
	err = g.Release()
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, "restore", modeErr.Op)
	assert.False(t, c.Active())
}

func TestGuard_NilRelease(t *testing.T) {
	var g *Guard
	assert.NoError(t, g.Release())
}
