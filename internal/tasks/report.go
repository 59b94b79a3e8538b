package tasks

import (
	"fmt"
	"sort"
	"strings"
)

const (
	reportTitleConstant            = "# Task annotations"
	emptyReportLineConstant        = "No task annotations found."
	tagHeadingTemplateConstant     = "## %s (%d)"
	annotationLineTemplateConstant = "- `%s:%d` %s"
	reportLineSeparatorConstant    = "\n"
)

// tagDisplayOrder fixes the section order of the Markdown report.
var tagDisplayOrder = []string{"FIXME", "TODO", "HACK", "XXX", "NOTE"}

// RenderMarkdown formats annotations as a Markdown report grouped by tag.
// Known tags render in severity order; unknown tags follow alphabetically.
func RenderMarkdown(annotations []Annotation) string {
	reportLines := []string{reportTitleConstant, ""}
	if len(annotations) == 0 {
		reportLines = append(reportLines, emptyReportLineConstant)
		return strings.Join(reportLines, reportLineSeparatorConstant) + reportLineSeparatorConstant
	}

	annotationsByTag := map[string][]Annotation{}
	for _, foundAnnotation := range annotations {
		annotationsByTag[foundAnnotation.Tag] = append(annotationsByTag[foundAnnotation.Tag], foundAnnotation)
	}

	for _, tagName := range orderedTags(annotationsByTag) {
		taggedAnnotations := annotationsByTag[tagName]
		reportLines = append(reportLines, fmt.Sprintf(tagHeadingTemplateConstant, tagName, len(taggedAnnotations)), "")
		for _, taggedAnnotation := range taggedAnnotations {
			annotationMessage := taggedAnnotation.Message
			if len(annotationMessage) == 0 {
				annotationMessage = taggedAnnotation.ContextLine
			}
			reportLines = append(reportLines, fmt.Sprintf(annotationLineTemplateConstant, taggedAnnotation.FilePath, taggedAnnotation.LineNumber, annotationMessage))
		}
		reportLines = append(reportLines, "")
	}

	return strings.TrimRight(strings.Join(reportLines, reportLineSeparatorConstant), reportLineSeparatorConstant) + reportLineSeparatorConstant
}

func orderedTags(annotationsByTag map[string][]Annotation) []string {
	orderedTagNames := []string{}
	for _, knownTag := range tagDisplayOrder {
		if _, tagPresent := annotationsByTag[knownTag]; tagPresent {
			orderedTagNames = append(orderedTagNames, knownTag)
		}
	}

	unknownTagNames := []string{}
	for tagName := range annotationsByTag {
		if !containsTag(tagDisplayOrder, tagName) {
			unknownTagNames = append(unknownTagNames, tagName)
		}
	}
	sort.Strings(unknownTagNames)
	return append(orderedTagNames, unknownTagNames...)
}

func containsTag(tagNames []string, candidateTag string) bool {
	for _, tagName := range tagNames {
		if tagName == candidateTag {
			return true
		}
	}
	return false
}
