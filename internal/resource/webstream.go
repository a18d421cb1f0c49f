package resource

import (
	"context"
	"net/url"
	"path"
)

// WebStream is a resource addressed by URL. Streams have no modification
// time; they resolve once per cache lifetime.
type WebStream struct {
	base
	url  string
	name string
}

// NewWebStream returns an unresolved stream resource. name is shown to
// renderers; when empty it is derived from the URL.
func NewWebStream(rawURL, name string, deps *Deps) *WebStream {
	if name == "" {
		name = streamName(rawURL)
	}
	w := &WebStream{url: rawURL, name: name}
	w.deps = deps
	return w
}

// URL returns the stream locator.
func (w *WebStream) URL() string { return w.url }

// Name returns the display name.
func (w *WebStream) Name() string { return w.name }

// Length is unknown for streams.
func (w *WebStream) Length() int64 { return -1 }

// Resolve attaches the cached MediaInfo for the stream.
func (w *WebStream) Resolve(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resolveLocked(ctx)
}

func (w *WebStream) resolveLocked(ctx context.Context) {
	if w.IsMediaParsed() {
		return
	}
	f := w.resolveFormat(w.url)
	if f == nil {
		return
	}
	w.state.Store(int32(Resolving))
	mi := w.deps.Cache.GetWebStream(ctx, w.url, f, f.Type)
	w.info.Store(mi)
	w.state.Store(int32(Resolved))
}

// IsValid reports whether the URL matched a streaming format. Streams are not
// probed for validity; the remote end may not be reachable yet.
func (w *WebStream) IsValid(context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setValidity(w.resolveFormat(w.url) != nil)
}

func streamName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		return base
	}
	return u.Host
}

var _ Resource = (*WebStream)(nil)
