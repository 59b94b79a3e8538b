// Package tasks extracts task annotations such as TODO and FIXME from source
// trees. Scanning is a pure filesystem walk with per-manifest extension and
// directory filters, and results render as a Markdown report.
package tasks
