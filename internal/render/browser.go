package render

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/errors"
)

// Engine captures HTML documents as PNG screenshots using headless Chrome
// driven over CDP. Each Screenshot call launches and tears down one browser;
// the daemon simply calls it again on the next push.
type Engine struct {
	log *slog.Logger
}

// NewEngine returns a screenshot engine. A nil logger uses slog.Default.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// Screenshot renders the document in a 1920x1080 viewport and returns the
// PNG bytes of a single full-viewport capture.
func (e *Engine) Screenshot(ctx context.Context, html string) ([]byte, error) {
	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "launch chrome")
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "connect to chrome")
	}
	defer func() {
		if err := browser.Close(); err != nil {
			e.log.Warn("Failed to close browser", "error", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "open page")
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             config.ImageWidth,
		Height:            config.ImageHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "set viewport")
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "set document content")
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "wait for page load")
	}

	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "capture screenshot")
	}

	e.log.Debug("Captured screenshot", "bytes", len(png))
	return png, nil
}
