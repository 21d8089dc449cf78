package uploader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/graphdesk/graphdesk/internal/api"
	"github.com/graphdesk/graphdesk/internal/pipeline"
	"github.com/graphdesk/graphdesk/internal/progress"
)

// DefaultMaxFileSize is the maximum document size accepted for upload (50 MB).
const DefaultMaxFileSize int64 = 50 << 20

// parseableExtensions are the formats the backend parser understands.
var parseableExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".html": true,
	".htm":  true,
	".rst":  true,
	".csv":  true,
}

// FileInfo holds metadata about a document discovered during traversal.
type FileInfo struct {
	Path    string // Absolute path on disk.
	RelPath string // Path relative to the root directory.
	Size    int64  // File size in bytes.
}

// SelectConfig controls document discovery under a root directory.
type SelectConfig struct {
	RootDir     string   // Root directory to scan.
	Include     []string // Glob patterns; only matching files are selected.
	Exclude     []string // Glob patterns; matching files are skipped.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Select traverses the directory tree rooted at config.RootDir and returns
// every parseable document that passes the include/exclude filters.
func Select(config SelectConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("uploader: resolve root: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if d.IsDir() {
			if shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if !parseableExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("uploader: traversal: %w", err)
	}

	return files, nil
}

// Result summarizes a batch upload.
type Result struct {
	Uploaded []pipeline.Document
	Failed   []FailedUpload
}

// FailedUpload records a file that could not be uploaded.
type FailedUpload struct {
	File FileInfo
	Err  error
}

// UploadAll uploads the given files to a knowledge base one at a time,
// reporting progress as it goes. Individual failures are collected rather
// than aborting the batch.
func UploadAll(ctx context.Context, client *api.Client, kbID int64, files []FileInfo, reporter progress.Reporter) (*Result, error) {
	if len(files) == 0 {
		return &Result{}, nil
	}

	if reporter != nil {
		reporter.Start(len(files), "Uploading documents")
		defer reporter.Finish()
	}

	result := &Result{}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		f, err := os.Open(file.Path)
		if err != nil {
			result.Failed = append(result.Failed, FailedUpload{File: file, Err: err})
			continue
		}

		doc, err := client.UploadDocumentReader(ctx, kbID, file.RelPath, f)
		f.Close()
		if err != nil {
			result.Failed = append(result.Failed, FailedUpload{File: file, Err: err})
		} else {
			result.Uploaded = append(result.Uploaded, *doc)
		}

		if reporter != nil {
			reporter.Update(i+1, file.RelPath)
		}
	}

	return result, nil
}
