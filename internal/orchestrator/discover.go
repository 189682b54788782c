package orchestrator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// pdfSuffix is matched case-sensitively, so "scan.PDF" is not picked up.
const pdfSuffix = ".pdf"

// Discover lists the files directly inside dir whose names end in ".pdf",
// in directory-listing (lexical) order. Subdirectories are not searched and
// directories named *.pdf are skipped. A missing dir yields no documents.
func Discover(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if !IsPDFName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isFile(path, entry) {
			continue
		}
		docs = append(docs, NewDocument(path))
	}
	return docs, nil
}

// NewDocument builds a Document for path, deriving ID from the file name.
func NewDocument(path string) Document {
	return Document{Path: path, ID: stem(filepath.Base(path))}
}

// stem strips the final extension. A leading dot starts the name rather
// than an extension, so ".pdf" is its own stem.
func stem(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// IsPDFName reports whether name carries the ".pdf" suffix.
func IsPDFName(name string) bool {
	return strings.HasSuffix(name, pdfSuffix)
}

// isFile follows symlinks so linked PDFs are processed like regular ones.
func isFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Paths returns the document paths in order.
func Paths(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}

// IDs returns the document identifiers in order.
func IDs(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
