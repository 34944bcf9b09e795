package build

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitewatch/internal/errors"
	"git.home.luguber.info/inful/sitewatch/internal/watch"
)

const pageShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s</body>
</html>
`

// buildMarkdown is the builtin fallback builder used when no build command is
// configured. It renders every watched markdown source into the output
// directory, mirroring its relative path, and copies other watched files
// verbatim as assets.
func (r *Runner) buildMarkdown() error {
	fsys := os.DirFS(r.cfg.Root)
	md := goldmark.New()

	rendered, copied := 0, 0
	for _, pattern := range r.cfg.Watch.Patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return errors.WrapFatal(err, errors.CategoryBuild, "glob failed for pattern "+pattern)
		}
		for _, match := range matches {
			if watch.Ignored(match, r.cfg.Watch.Ignore) {
				continue
			}
			src := filepath.Join(r.cfg.Root, filepath.FromSlash(match))
			switch strings.ToLower(filepath.Ext(match)) {
			case ".md", ".markdown":
				if err := r.renderPage(md, src, match); err != nil {
					return err
				}
				rendered++
			default:
				if err := r.copyAsset(src, match); err != nil {
					return err
				}
				copied++
			}
		}
	}
	if rendered == 0 {
		slog.Warn("builtin builder found no markdown sources", "patterns", r.cfg.Watch.Patterns)
	}
	slog.Debug("builtin markdown build finished", "rendered", rendered, "copied", copied)
	return nil
}

// renderPage converts one markdown source to HTML under the output directory.
func (r *Runner) renderPage(md goldmark.Markdown, src, rel string) error {
	source, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			// Vanished mid-build; the next snapshot settles it.
			return nil
		}
		return errors.WrapFatal(err, errors.CategoryBuild, "read markdown source "+rel)
	}

	var body bytes.Buffer
	if err := md.Convert(source, &body); err != nil {
		// Malformed input is the author's build failure, not an engine error.
		slog.Warn("markdown conversion failed", "path", rel, "error", err)
		return nil
	}

	out := r.outputPath(rel)
	out = strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.WrapFatal(err, errors.CategoryBuild, "create output directory")
	}

	title := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	page := fmt.Sprintf(pageShell, title, body.String())
	if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
		return errors.WrapFatal(err, errors.CategoryBuild, "write rendered page")
	}
	return nil
}

// copyAsset copies a non-markdown watched file into the output directory.
func (r *Runner) copyAsset(src, rel string) error {
	out := r.outputPath(rel)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.WrapFatal(err, errors.CategoryBuild, "create output directory")
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapFatal(err, errors.CategoryBuild, "open asset "+rel)
	}
	defer func() { _ = in.Close() }()

	dst, err := os.Create(out)
	if err != nil {
		return errors.WrapFatal(err, errors.CategoryBuild, "create asset "+rel)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, in); err != nil {
		return errors.WrapFatal(err, errors.CategoryBuild, "copy asset "+rel)
	}
	return nil
}

func (r *Runner) outputPath(rel string) string {
	outDir := r.cfg.Build.Output
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(r.cfg.Root, outDir)
	}
	return filepath.Join(outDir, filepath.FromSlash(rel))
}
