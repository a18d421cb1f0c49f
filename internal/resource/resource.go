package resource

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/mediacache"
	"mediahub/internal/mediainfo"
	"mediahub/internal/metrics"
)

// State is the resolution progress of a resource.
type State int32

const (
	Unresolved State = iota
	Resolving
	Resolved
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Validity is the outcome of the last IsValid call.
type Validity int32

const (
	ValidityUnknown Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Cache is the media metadata cache as seen by resources.
type Cache interface {
	Get(ctx context.Context, key mediacache.Key, locator string, f *format.Format, typeHint format.Type) *mediainfo.MediaInfo
	GetWebStream(ctx context.Context, url string, f *format.Format, typeHint format.Type) *mediainfo.MediaInfo
	Persist(ctx context.Context, key mediacache.Key, typeHint format.Type, mi *mediainfo.MediaInfo) error
}

// Prober re-parses a file whose container was not recognised.
type Prober interface {
	Parse(ctx context.Context, mi *mediainfo.MediaInfo, locator string, f *format.Format, typeHint format.Type) error
	Name() string
}

// Enqueuer accepts resolved videos for background enrichment.
type Enqueuer interface {
	Enqueue(path string, modTime int64, mi *mediainfo.MediaInfo)
}

// Deps are shared by every resource of a server.
type Deps struct {
	Registry       *format.Registry
	Cache          Cache
	Secondary      Prober
	Enricher       Enqueuer
	UseMediaInfo   bool
	FollowSymlinks bool
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

func (d *Deps) logger() *slog.Logger {
	return logging.NewComponentLogger(d.Logger, "resource")
}

// Resource is a browsable item.
type Resource interface {
	Name() string
	Resolve(ctx context.Context)
	IsValid(ctx context.Context) bool
	WaitMediaParsing(timeoutSeconds int) bool
	State() State
	Validity() Validity
	MediaInfo() *mediainfo.MediaInfo
	Format() *format.Format
	Length() int64
}

// base holds the state machine shared by concrete resources. mu serializes
// Resolve and IsValid; the published fields are atomic so readers never wait
// for an in-flight resolution.
type base struct {
	mu       sync.Mutex
	deps     *Deps
	state    atomic.Int32
	validity atomic.Int32
	info     atomic.Pointer[mediainfo.MediaInfo]
	format   atomic.Pointer[format.Format]
}

// State returns the resolution state.
func (b *base) State() State { return State(b.state.Load()) }

// Validity returns the outcome of the last validity check.
func (b *base) Validity() Validity { return Validity(b.validity.Load()) }

// MediaInfo returns the attached MediaInfo, or nil before resolution.
func (b *base) MediaInfo() *mediainfo.MediaInfo { return b.info.Load() }

// Format returns the matched format, or nil.
func (b *base) Format() *format.Format { return b.format.Load() }

// IsMediaParsed reports whether the attached MediaInfo finished parsing.
func (b *base) IsMediaParsed() bool {
	mi := b.info.Load()
	return mi != nil && mi.IsParsed()
}

// WaitMediaParsing polls until neither a resolution nor a parse of the
// attached MediaInfo is in flight. It returns false on timeout and does not
// cancel the work.
func (b *base) WaitMediaParsing(timeoutSeconds int) bool {
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	for {
		mi := b.info.Load()
		busy := b.State() == Resolving || (mi != nil && mi.IsParsing())
		if !busy {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(mediainfo.ParsePollInterval)
	}
}

func (b *base) resolveFormat(name string) *format.Format {
	if f := b.format.Load(); f != nil {
		return f
	}
	if b.deps.Registry == nil {
		return nil
	}
	f := b.deps.Registry.Match(name)
	if f != nil {
		b.format.Store(f)
	}
	return f
}

func (b *base) typ() format.Type {
	if f := b.format.Load(); f != nil {
		return f.Type
	}
	return format.Unknown
}

func (b *base) setValidity(valid bool) bool {
	if valid {
		b.validity.Store(int32(Valid))
		b.deps.Metrics.Validation("valid")
	} else {
		b.validity.Store(int32(Invalid))
		b.deps.Metrics.Validation("invalid")
	}
	return valid
}
