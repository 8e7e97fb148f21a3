// Package pipeline sequences one push: render the content to a PNG, delete
// the previously uploaded artwork (best-effort), upload the new image, select
// it as the active artwork, and persist its identifier.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/errors"
	"git.home.luguber.info/inful/framecast/internal/history"
	"git.home.luguber.info/inful/framecast/internal/logfields"
	"git.home.luguber.info/inful/framecast/internal/render"
	"git.home.luguber.info/inful/framecast/internal/state"
	"git.home.luguber.info/inful/framecast/internal/theme"
)

// ArtSession is the slice of the TV session the pipeline drives.
type ArtSession interface {
	Upload(ctx context.Context, png []byte) (string, error)
	Select(ctx context.Context, contentID string) error
	Delete(ctx context.Context, contentID string) error
	Close() error
}

// Connector opens an art session; *tv.Client.Connect satisfies it.
type Connector func(ctx context.Context) (ArtSession, error)

// Screenshotter captures an HTML document as PNG bytes.
type Screenshotter interface {
	Screenshot(ctx context.Context, html string) ([]byte, error)
}

// Recorder appends to the upload history; failures are logged, never fatal.
type Recorder interface {
	Append(ctx context.Context, rec history.Record) error
}

// Pusher runs the push sequence. Construct with New.
type Pusher struct {
	cfg      *config.Config
	resolver *theme.Resolver
	shooter  Screenshotter
	store    *state.Store
	recorder Recorder
	connect  Connector
	log      *slog.Logger
}

// New wires a Pusher. recorder may be nil when history is unavailable.
func New(cfg *config.Config, resolver *theme.Resolver, shooter Screenshotter, store *state.Store, recorder Recorder, connect Connector, log *slog.Logger) *Pusher {
	if log == nil {
		log = slog.Default()
	}
	return &Pusher{
		cfg:      cfg,
		resolver: resolver,
		shooter:  shooter,
		store:    store,
		recorder: recorder,
		connect:  connect,
		log:      log,
	}
}

// Run executes one push and returns the new content identifier.
//
// Render and upload failures abort the sequence; deleting the previous
// artwork and recording history are best-effort. The temporary PNG is
// removed on every exit path.
func (p *Pusher) Run(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	log := p.log.With(logfields.RunID(runID))

	content, err := render.LoadContent(p.cfg)
	if err != nil {
		return "", err
	}
	th, err := p.resolver.Resolve(p.cfg.Theme)
	if err != nil {
		return "", err
	}
	doc, err := render.Document(content, th.CSS)
	if err != nil {
		return "", err
	}

	log.Info("Rendering image", logfields.Theme(th.Name), logfields.Source(p.cfg.ContentFile))
	png, err := p.shooter.Screenshot(ctx, doc)
	if err != nil {
		return "", err
	}

	tmpPath, err := writeTemp(png)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			log.Warn("Failed to remove temporary image", logfields.Path(tmpPath), logfields.Error(err))
		}
	}()
	log.Debug("Saved rendered image", logfields.Path(tmpPath), "bytes", len(png))

	previous, err := p.store.Read()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryState, errors.SeverityFatal, "read previous content id")
	}

	log.Info("Connecting to TV")
	sess, err := p.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("Failed to close TV session", logfields.Error(err))
		}
	}()

	if previous != "" {
		log.Info("Deleting previous artwork", logfields.ContentID(previous))
		if err := sess.Delete(ctx, previous); err != nil {
			// The user may have removed it on the TV already.
			log.Warn("Could not delete previous artwork", logfields.ContentID(previous), logfields.Error(err))
		}
	}

	log.Info("Uploading image")
	contentID, err := sess.Upload(ctx, png)
	if err != nil {
		return "", err
	}

	log.Info("Selecting as active artwork", logfields.ContentID(contentID))
	if err := sess.Select(ctx, contentID); err != nil {
		return "", err
	}

	if err := p.store.Write(contentID); err != nil {
		return "", errors.Wrap(err, errors.CategoryState, errors.SeverityFatal, "persist content id")
	}

	if p.recorder != nil {
		rec := history.Record{
			RunID:     runID,
			ContentID: contentID,
			Source:    p.cfg.ContentFile,
			Theme:     th.Name,
		}
		if err := p.recorder.Append(ctx, rec); err != nil {
			log.Warn("Failed to record upload history", logfields.Error(err))
		}
	}

	log.Info("Push complete", logfields.ContentID(contentID))
	return contentID, nil
}

// writeTemp writes the PNG to a temporary file and returns its path.
func writeTemp(png []byte) (string, error) {
	f, err := os.CreateTemp("", "framecast-*.png")
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "create temporary image")
	}
	if _, err := f.Write(png); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal,
			fmt.Sprintf("write temporary image %s", f.Name()))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "close temporary image")
	}
	return f.Name(), nil
}
