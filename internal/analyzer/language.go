package analyzer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// knownFileTypes maps artifact extensions to rule applicability tags.
var knownFileTypes = map[string]string{
	"js":   "js",
	"mjs":  "js",
	"cjs":  "js",
	"jsx":  "jsx",
	"ts":   "ts",
	"tsx":  "tsx",
	"html": "html",
	"htm":  "html",
	"css":  "css",
	"py":   "py",
	"java": "java",
	"cs":   "cs",
	"go":   "go",
	"rb":   "rb",
	"php":  "php",
}

var (
	pyDefRe     = regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\(.*\)\s*:`)
	goPackageRe = regexp.MustCompile(`(?m)^package\s+\w+`)
)

// DetectFileType resolves the rule applicability tag for an artifact.
// The extension wins when recognized; otherwise the content is sniffed.
// An empty tag means only generic rules apply.
func DetectFileType(artifactKey, text string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(artifactKey)), ".")
	if tag, ok := knownFileTypes[ext]; ok {
		return tag
	}
	return sniffFileType(text)
}

// KnownExtension reports whether the path carries an extension the rule
// catalog has language-specific rules for. Project scans use it to skip
// binaries and assets.
func KnownExtension(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := knownFileTypes[ext]
	return ok
}

// sniffFileType guesses the file type from content markers alone.
func sniffFileType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html"):
		return "html"
	case strings.Contains(text, "import React") || strings.Contains(text, "from 'react'") || strings.Contains(text, `from "react"`):
		return "jsx"
	case goPackageRe.MatchString(text) && strings.Contains(text, "func "):
		return "go"
	case pyDefRe.MatchString(text) || strings.Contains(text, "import os") || strings.Contains(text, "def __init__"):
		return "py"
	case strings.Contains(text, "function ") || strings.Contains(text, "=>") || strings.Contains(text, "const "):
		return "js"
	default:
		return ""
	}
}
