package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"mediahub/internal/catalog"
	"mediahub/internal/config"
)

const catalogCheckTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckSharedFolder verifies that a shared folder exists and can be listed.
// Write access is not required.
func CheckSharedFolder(path string) Result {
	return checkDirectory("Shared folder", path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckCatalog requests the catalog's API versions. Disabled lookups pass with
// a note rather than failing.
func CheckCatalog(ctx context.Context, cfg *config.Config) Result {
	const name = "Catalog"

	if cfg == nil {
		return Result{Name: name, Detail: "unknown"}
	}
	if !cfg.CatalogActive() {
		return Result{Name: name, Passed: true, Detail: "lookups disabled"}
	}

	client, err := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Language,
		catalog.WithTimeout(catalogCheckTimeout),
		catalog.WithUserAgent(cfg.Catalog.UserAgent),
	)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, catalogCheckTimeout)
	defer cancel()
	resp, err := client.Subversions(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err)}
	}
	if !resp.OK() {
		if resp.Status != nil {
			return Result{Name: name, Detail: "catalog returned status " + strconv.Itoa(resp.Status.StatusCode)}
		}
		return Result{Name: name, Detail: "catalog returned no version data"}
	}
	detail := cfg.Catalog.BaseURL
	if video := resp.Data.String("video"); video != "" {
		detail += " (video API " + video + ")"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

func summarizeNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (catalog unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (catalog unreachable)"
	}
	return err.Error()
}
