package resource

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/mediacache"
)

// UploadPlaceholder is the content written by renderers that create an empty
// file before uploading into it. A file of exactly this size is listed
// without being parsed.
const UploadPlaceholder = "<UPLOAD RESOURCE>"

// RealFile is a resource backed by a local file.
type RealFile struct {
	base
	path       string
	splitTrack int
}

// NewRealFile returns an unresolved resource for path.
func NewRealFile(path string, deps *Deps) *RealFile {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	f := &RealFile{path: path}
	f.deps = deps
	return f
}

// SetSplitTrack selects one track of a multi-track file. It must be called
// before the first Resolve.
func (r *RealFile) SetSplitTrack(track int) {
	r.mu.Lock()
	r.splitTrack = track
	r.mu.Unlock()
}

// Path returns the absolute file path.
func (r *RealFile) Path() string { return r.path }

// Name returns the file name.
func (r *RealFile) Name() string { return filepath.Base(r.path) }

// Length returns the parsed size, falling back to the size on disk.
func (r *RealFile) Length() int64 {
	if mi := r.MediaInfo(); mi != nil && mi.IsParsed() && mi.Size > 0 {
		return mi.Size
	}
	info, err := os.Stat(r.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Key returns the cache key for the file's current state.
func (r *RealFile) Key() (mediacache.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, err := os.Stat(r.path)
	if err != nil {
		return mediacache.Key{}, err
	}
	return r.keyLocked(info), nil
}

func (r *RealFile) keyLocked(info os.FileInfo) mediacache.Key {
	name := r.path
	if r.deps.FollowSymlinks {
		if lst, err := os.Lstat(r.path); err == nil && lst.Mode()&os.ModeSymlink != 0 {
			if target, err := filepath.EvalSymlinks(r.path); err == nil {
				name = target
			}
		}
	}
	return mediacache.Key{Path: name, ModTime: info.ModTime().UnixMilli(), SplitTrack: r.splitTrack}
}

// Resolve attaches the cached MediaInfo for the file. It is a no-op once a
// parsed MediaInfo is attached.
func (r *RealFile) Resolve(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolveLocked(ctx)
}

func (r *RealFile) resolveLocked(ctx context.Context) {
	if r.IsMediaParsed() {
		return
	}
	info, err := os.Stat(r.path)
	if err != nil || !info.Mode().IsRegular() {
		r.deps.logger().Debug("resolve skipped; not a regular file", logging.Path(r.path))
		return
	}
	f := r.resolveFormat(r.path)
	key := r.keyLocked(info)

	r.state.Store(int32(Resolving))
	mi := r.deps.Cache.Get(ctx, key, r.path, f, r.typ())
	r.info.Store(mi)
	r.state.Store(int32(Resolved))

	if mi.IsParsed() && f != nil && f.IsVideo() && r.deps.Enricher != nil {
		r.deps.Enricher.Enqueue(key.StoreKey(), key.ModTime, mi)
	}
}

// IsValid reports whether the file should be listed. Missing, unreadable and
// subtitle files are invalid. With UseMediaInfo the file is resolved first and
// encrypted or unparseable media is rejected.
func (r *RealFile) IsValid(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil || !info.Mode().IsRegular() {
		return r.setValidity(false)
	}
	if err := unix.Access(r.path, unix.R_OK); err != nil {
		return r.setValidity(false)
	}
	f := r.resolveFormat(r.path)
	if f == nil {
		return r.setValidity(false)
	}
	if f.IsSubtitle() {
		return r.setValidity(false)
	}
	if isUploadPlaceholder(info, f.Type) {
		return r.setValidity(true)
	}

	if !r.deps.UseMediaInfo {
		return r.setValidity(!f.IsUnknown())
	}

	r.resolveLocked(ctx)
	mi := r.MediaInfo()
	if f.IsUnknown() || mi == nil {
		return r.setValidity(true)
	}
	logger := logging.WithContext(ctx, r.deps.logger()).With(logging.Path(r.path))
	if mi.IsEncrypted() {
		logger.Info("file is encrypted; hiding it")
		return r.setValidity(false)
	}
	if !mi.HasContainer() {
		if !r.reparseLocked(ctx, info) {
			logger.Info("file could not be parsed; hiding it")
			return r.setValidity(false)
		}
	}
	return r.setValidity(true)
}

// reparseLocked runs the secondary prober over the attached MediaInfo and
// reports whether a container was recognised.
func (r *RealFile) reparseLocked(ctx context.Context, info os.FileInfo) bool {
	mi := r.MediaInfo()
	wasParsed := mi.IsParsed()
	if r.deps.Secondary == nil || !mi.BeginReparse() {
		return false
	}
	mi.Container = ""
	err := r.deps.Secondary.Parse(ctx, mi, r.path, r.Format(), r.typ())
	ok := err == nil && mi.HasContainer()
	mi.FinishParsing(ok || wasParsed)
	if err != nil {
		logging.WarnWithContext(r.deps.logger(), "secondary probe failed", "secondary_probe_failed",
			logging.Path(r.path),
			logging.String("prober", r.deps.Secondary.Name()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file is hidden from renderers"),
		)
		return false
	}
	if !ok {
		return false
	}
	mi.ParsedBy = r.deps.Secondary.Name()
	if perr := r.deps.Cache.Persist(ctx, r.keyLocked(info), r.typ(), mi); perr != nil {
		logging.WarnWithContext(r.deps.logger(), "reparsed media not persisted", "cache_store_write_failed",
			logging.Path(r.path),
			logging.Error(perr),
			logging.String(logging.FieldImpact, "file is reparsed after restart"),
		)
	}
	return true
}

func isUploadPlaceholder(info os.FileInfo, t format.Type) bool {
	if t&(format.Audio|format.Video) == 0 {
		return false
	}
	return info.Size() == int64(len(UploadPlaceholder))
}

// String identifies the resource in logs.
func (r *RealFile) String() string {
	if r.splitTrack > 0 {
		return r.path + " [track " + strconv.Itoa(r.splitTrack) + "]"
	}
	return r.path
}

var (
	_ Resource = (*RealFile)(nil)
	_ Cache    = (*mediacache.Cache)(nil)
)
