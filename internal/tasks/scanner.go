package tasks

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	annotationPatternConstant      = `(?:#|//|/\*)\s*(TODO|FIXME|NOTE|HACK|XXX)\b[:\s]*(.*)`
	blockCommentSuffixConstant     = "*/"
	walkTreeErrorTemplateConstant  = "walk %s: %w"
	fileFieldNameConstant          = "file"
	annotationCountFieldConstant   = "annotation_count"
	scannedFilesFieldNameConstant  = "scanned_files"
	rootFieldNameConstant          = "root"
	scanCompletedMessageConstant   = "Task scan completed"
	unreadableFileMessageConstant  = "Skipping unreadable file"
	maximumScannedLineSizeConstant = 1024 * 1024
)

var annotationExpression = regexp.MustCompile(annotationPatternConstant)

// ErrScannerLoggerNotConfigured indicates the scanner was constructed
// without a logger.
var ErrScannerLoggerNotConfigured = errors.New("task scanner logger not configured")

// Annotation is a single task marker found in a scanned file.
type Annotation struct {
	FilePath    string
	LineNumber  int
	Tag         string
	Message     string
	ContextLine string
}

// ScannerOptions filters which files a scan visits.
type ScannerOptions struct {
	// Extensions is the file extension allow-list, dot included.
	Extensions []string
	// SkipDirectories names directories excluded from the walk.
	SkipDirectories []string
}

// Scanner walks a directory tree collecting task annotations.
type Scanner struct {
	logger              *zap.Logger
	allowedExtensions   map[string]struct{}
	excludedDirectories map[string]struct{}
}

// NewScanner builds a scanner with the provided filters.
func NewScanner(logger *zap.Logger, options ScannerOptions) (*Scanner, error) {
	if logger == nil {
		return nil, ErrScannerLoggerNotConfigured
	}

	allowedExtensions := map[string]struct{}{}
	for _, fileExtension := range options.Extensions {
		allowedExtensions[strings.ToLower(strings.TrimSpace(fileExtension))] = struct{}{}
	}
	excludedDirectories := map[string]struct{}{}
	for _, directoryName := range options.SkipDirectories {
		excludedDirectories[strings.TrimSpace(directoryName)] = struct{}{}
	}

	return &Scanner{
		logger:              logger,
		allowedExtensions:   allowedExtensions,
		excludedDirectories: excludedDirectories,
	}, nil
}

// Scan walks the tree rooted at rootPath and returns every annotation found
// in allow-listed files, ordered by walk order and line number. File paths in
// the result are relative to the root.
func (scanner *Scanner) Scan(rootPath string) ([]Annotation, error) {
	collectedAnnotations := []Annotation{}
	scannedFileCount := 0

	walkError := filepath.WalkDir(rootPath, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			if _, directoryExcluded := scanner.excludedDirectories[directoryEntry.Name()]; directoryExcluded && currentPath != rootPath {
				return filepath.SkipDir
			}
			return nil
		}
		if !scanner.extensionAllowed(directoryEntry.Name()) {
			return nil
		}

		relativePath, relativeError := filepath.Rel(rootPath, currentPath)
		if relativeError != nil {
			relativePath = currentPath
		}

		fileAnnotations, scanFileError := scanner.scanFile(currentPath, relativePath)
		if scanFileError != nil {
			scanner.logger.Warn(unreadableFileMessageConstant, zap.String(fileFieldNameConstant, relativePath), zap.Error(scanFileError))
			return nil
		}
		scannedFileCount++
		collectedAnnotations = append(collectedAnnotations, fileAnnotations...)
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(walkTreeErrorTemplateConstant, rootPath, walkError)
	}

	scanner.logger.Debug(scanCompletedMessageConstant,
		zap.String(rootFieldNameConstant, rootPath),
		zap.Int(scannedFilesFieldNameConstant, scannedFileCount),
		zap.Int(annotationCountFieldConstant, len(collectedAnnotations)),
	)
	return collectedAnnotations, nil
}

func (scanner *Scanner) extensionAllowed(fileName string) bool {
	if len(scanner.allowedExtensions) == 0 {
		return true
	}
	_, extensionAllowed := scanner.allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
	return extensionAllowed
}

func (scanner *Scanner) scanFile(filePath string, relativePath string) ([]Annotation, error) {
	fileHandle, openError := os.Open(filePath)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()

	fileAnnotations := []Annotation{}
	lineScanner := bufio.NewScanner(fileHandle)
	lineScanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maximumScannedLineSizeConstant)
	lineNumber := 0
	for lineScanner.Scan() {
		lineNumber++
		currentLine := lineScanner.Text()
		patternMatch := annotationExpression.FindStringSubmatch(currentLine)
		if patternMatch == nil {
			continue
		}
		annotationMessage := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(patternMatch[2]), blockCommentSuffixConstant))
		fileAnnotations = append(fileAnnotations, Annotation{
			FilePath:    relativePath,
			LineNumber:  lineNumber,
			Tag:         patternMatch[1],
			Message:     annotationMessage,
			ContextLine: strings.TrimSpace(currentLine),
		})
	}
	if scanError := lineScanner.Err(); scanError != nil {
		return nil, scanError
	}
	return fileAnnotations, nil
}
