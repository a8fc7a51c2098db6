package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/apphub/pkg/apps"
)

// DefaultIconSizes are searched in order inside each theme.
var DefaultIconSizes = []string{"48x48", "64x64", "128x128", "256x256", "32x32", "scalable"}

var iconExtensions = []string{".png", ".svg", ".xpm"}

// IconThemeExtractor resolves the Icon= key of a desktop entry to image data
// by searching freedesktop icon themes, then the pixmaps directory.
type IconThemeExtractor struct {
	// DataDirs are the XDG data directories holding icons/ and pixmaps/.
	DataDirs []string
	// Themes are searched in order; hicolor is the freedesktop fallback.
	Themes []string
	Sizes  []string
	Log    *log.Entry
}

// NewIconThemeExtractor searches the XDG data directories when none are
// given, and the hicolor theme after any named themes.
func NewIconThemeExtractor(dataDirs []string, themes ...string) *IconThemeExtractor {
	if len(dataDirs) == 0 {
		dataDirs = DataDirs()
	}
	hasHicolor := false
	for _, t := range themes {
		hasHicolor = hasHicolor || t == "hicolor"
	}
	if !hasHicolor {
		themes = append(themes, "hicolor")
	}
	return &IconThemeExtractor{
		DataDirs: dataDirs,
		Themes:   themes,
		Sizes:    DefaultIconSizes,
		Log:      log.WithField("component", "platform"),
	}
}

// ExtractIcon implements apps.IconExtractor. path is the .desktop file of
// the application; a path that is itself an image is read directly.
func (x *IconThemeExtractor) ExtractIcon(ctx context.Context, path string) (apps.Icon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := path
	if strings.HasSuffix(path, ".desktop") {
		entry, err := ParseDesktopEntry(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apps.ErrIconExtraction, err)
		}
		name = entry.Icon
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s declares no icon", apps.ErrIconExtraction, path)
	}

	file, ok := x.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: icon %q not found", apps.ErrIconExtraction, name)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apps.ErrIconExtraction, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", apps.ErrIconExtraction, file)
	}
	x.Log.WithField("icon", file).Debug("platform: resolved icon")
	return apps.Icon(data), nil
}

func (x *IconThemeExtractor) lookup(name string) (string, bool) {
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	for _, theme := range x.Themes {
		for _, size := range x.Sizes {
			for _, dir := range x.DataDirs {
				base := filepath.Join(dir, "icons", theme, size, "apps", name)
				if f, ok := withExtension(base); ok {
					return f, true
				}
			}
		}
	}
	for _, dir := range x.DataDirs {
		if f, ok := withExtension(filepath.Join(dir, "pixmaps", name)); ok {
			return f, true
		}
	}
	if f, ok := withExtension(filepath.Join("/usr/share/pixmaps", name)); ok {
		return f, true
	}
	return "", false
}

func withExtension(base string) (string, bool) {
	if filepath.Ext(base) != "" && isFile(base) {
		return base, true
	}
	for _, ext := range iconExtensions {
		if isFile(base + ext) {
			return base + ext, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
