package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	deps     []string
	log      *[]string
	initErr  error
	startErr error
	stopErr  error
	args     []any
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(args ...any) error {
	f.args = args
	*f.log = append(*f.log, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop() error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}

func TestHub_DependencyOrder(t *testing.T) {
	var log []string
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "screen", deps: []string{"terminal"}, log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "terminal", log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "audit", log: &log}))

	require.NoError(t, h.InitAll(map[string][]any{"terminal": {42}}))
	require.NoError(t, h.StartAll())
	require.NoError(t, h.StopAll())

	assert.Equal(t, []string{
		"init:audit", "init:terminal", "init:screen",
		"start:audit", "start:terminal", "start:screen",
		"stop:screen", "stop:terminal", "stop:audit",
	}, log)

	term := MustGet[*fakeService](h, "terminal")
	assert.Equal(t, []any{42}, term.args)
	assert.Equal(t, []string{"audit", "screen", "terminal"}, h.Names())
}

func TestHub_DuplicateRegister(t *testing.T) {
	var log []string
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "terminal", log: &log}))
	assert.Error(t, h.Register(&fakeService{name: "terminal", log: &log}))
}

func TestHub_UnknownDependency(t *testing.T) {
	var log []string
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "screen", deps: []string{"terminal"}, log: &log}))
	assert.ErrorContains(t, h.InitAll(nil), "unregistered service")
}

func TestHub_Cycle(t *testing.T) {
	var log []string
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", deps: []string{"b"}, log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log}))
	assert.ErrorContains(t, h.InitAll(nil), "circular")
}

func TestHub_InitRollback(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", log: &log}))
	require.NoError(t, h.Register(&fakeService{name: "b", deps: []string{"a"}, log: &log, initErr: boom}))

	err := h.InitAll(nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init:a", "init:b", "stop:a"}, log)
}

func TestHub_StopAllJoinsErrors(t *testing.T) {
	var log []string
	e1, e2 := errors.New("e1"), errors.New("e2")
	h := NewHub()
	require.NoError(t, h.Register(&fakeService{name: "a", log: &log, stopErr: e1}))
	require.NoError(t, h.Register(&fakeService{name: "b", log: &log, stopErr: e2}))
	require.NoError(t, h.InitAll(nil))

	err := h.StopAll()
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.NoError(t, h.StopAll(), "second StopAll has nothing to stop")
}

func TestHub_StartBeforeInit(t *testing.T) {
	h := NewHub()
	assert.Error(t, h.StartAll())
}

func TestMustGet_Panics(t *testing.T) {
	h := NewHub()
	assert.Panics(t, func() { MustGet[*fakeService](h, "missing") })
}
