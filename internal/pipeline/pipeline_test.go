package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/errors"
	"git.home.luguber.info/inful/framecast/internal/history"
	"git.home.luguber.info/inful/framecast/internal/state"
	"git.home.luguber.info/inful/framecast/internal/theme"
)

type fakeSession struct {
	uploadID  string
	uploadErr error
	deleteErr error
	selectErr error

	deleted  []string
	uploaded [][]byte
	selected []string
	closed   bool
}

func (f *fakeSession) Upload(ctx context.Context, png []byte) (string, error) {
	f.uploaded = append(f.uploaded, png)
	return f.uploadID, f.uploadErr
}

func (f *fakeSession) Select(ctx context.Context, id string) error {
	f.selected = append(f.selected, id)
	return f.selectErr
}

func (f *fakeSession) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeShooter struct {
	png  []byte
	err  error
	docs []string
}

func (f *fakeShooter) Screenshot(ctx context.Context, html string) ([]byte, error) {
	f.docs = append(f.docs, html)
	return f.png, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	contentFile := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(contentFile, []byte("# hello frame"), 0600))
	return &config.Config{
		TVHost:      "192.168.1.100",
		Source:      config.SourceMarkdown,
		ContentFile: contentFile,
		Theme:       "default",
		StateDir:    filepath.Join(dir, ".frame-automation"),
	}
}

func newPusher(t *testing.T, cfg *config.Config, sess *fakeSession, shooter *fakeShooter, rec Recorder) (*Pusher, *state.Store) {
	t.Helper()
	store := state.NewStore(cfg.StateDir)
	connect := func(ctx context.Context) (ArtSession, error) { return sess, nil }
	return New(cfg, theme.NewResolver(), shooter, store, rec, connect, nil), store
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	store := state.NewStore(cfg.StateDir)
	require.NoError(t, store.Write("OLD_ID"))

	sess := &fakeSession{uploadID: "NEW_ID"}
	shooter := &fakeShooter{png: []byte{0x89, 'P', 'N', 'G'}}

	hist, err := history.Open(":memory:")
	require.NoError(t, err)
	defer hist.Close()

	p, _ := newPusher(t, cfg, sess, shooter, hist)

	id, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NEW_ID", id)

	// Previous artwork was deleted, the new image uploaded and selected.
	assert.Equal(t, []string{"OLD_ID"}, sess.deleted)
	require.Len(t, sess.uploaded, 1)
	assert.Equal(t, shooter.png, sess.uploaded[0])
	assert.Equal(t, []string{"NEW_ID"}, sess.selected)
	assert.True(t, sess.closed)

	// The state file holds exactly the new identifier.
	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "NEW_ID", got)

	// The rendered document reached the screenshot engine.
	require.Len(t, shooter.docs, 1)
	assert.Contains(t, shooter.docs[0], "hello frame")

	records, err := hist.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "NEW_ID", records[0].ContentID)
	assert.Equal(t, "default", records[0].Theme)
}

func TestRunWithoutPreviousStateSkipsDelete(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{uploadID: "FIRST_ID"}
	p, store := newPusher(t, cfg, sess, &fakeShooter{png: []byte{1}}, nil)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sess.deleted)

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "FIRST_ID", got)
}

func TestRunDeleteFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	store := state.NewStore(cfg.StateDir)
	require.NoError(t, store.Write("GONE_ID"))

	sess := &fakeSession{
		uploadID:  "NEW_ID",
		deleteErr: errors.New(errors.CategoryTV, errors.SeverityError, "content does not exist"),
	}
	p, _ := newPusher(t, cfg, sess, &fakeShooter{png: []byte{1}}, nil)

	id, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NEW_ID", id)
	assert.Equal(t, []string{"GONE_ID"}, sess.deleted)
}

func TestRunUploadFailureAbortsAndKeepsOldState(t *testing.T) {
	cfg := testConfig(t)
	store := state.NewStore(cfg.StateDir)
	require.NoError(t, store.Write("OLD_ID"))

	sess := &fakeSession{
		uploadErr: errors.New(errors.CategoryTV, errors.SeverityError, "storage full"),
	}
	p, _ := newPusher(t, cfg, sess, &fakeShooter{png: []byte{1}}, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, sess.selected)

	// The previous identifier stays current until an upload succeeds.
	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "OLD_ID", got)
}

func TestRunRenderFailureAbortsBeforeConnecting(t *testing.T) {
	cfg := testConfig(t)
	connected := false
	connect := func(ctx context.Context) (ArtSession, error) {
		connected = true
		return &fakeSession{}, nil
	}
	shooter := &fakeShooter{err: errors.New(errors.CategoryRender, errors.SeverityFatal, "chrome crashed")}
	p := New(cfg, theme.NewResolver(), shooter, state.NewStore(cfg.StateDir), nil, connect, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryRender))
	assert.False(t, connected)
}

func TestRunUnknownThemeFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Theme = "nope"
	p, _ := newPusher(t, cfg, &fakeSession{}, &fakeShooter{png: []byte{1}}, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTheme))
}

func TestRunSelectFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{
		uploadID:  "NEW_ID",
		selectErr: errors.New(errors.CategoryTV, errors.SeverityError, "select rejected"),
	}
	p, store := newPusher(t, cfg, sess, &fakeShooter{png: []byte{1}}, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)

	// Select failed, so the new id was never persisted.
	got, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, got)
}
