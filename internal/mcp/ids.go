package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"rental-aggregator/internal/models"
)

// ExtractHandle pulls the run and dataset ids out of a tools/call result. Ids on the
// result object win; the run-information JSON embedded in content[0].text only fills
// the gaps. A zero handle means nothing pollable was found. The error reports
// embedded text that looked like JSON but did not decode; the handle still carries
// whatever the result object held.
func ExtractHandle(result models.RawRecord) (models.JobHandle, error) {
	handle := models.JobHandle{
		RunID:     result.FirstText([]string{"runId"}, []string{"actorRunId"}),
		DatasetID: result.FirstText([]string{"datasetId"}, []string{"defaultDatasetId"}),
	}
	if handle.RunID != "" && handle.DatasetID != "" {
		return handle, nil
	}

	inner, err := embeddedRunInfo(result)
	if inner == nil {
		return handle, err
	}
	if handle.RunID == "" {
		handle.RunID = inner.FirstText([]string{"id"}, []string{"runId"}, []string{"actorRunId"})
	}
	if handle.DatasetID == "" {
		handle.DatasetID = inner.FirstText([]string{"defaultDatasetId"}, []string{"datasetId"})
	}
	return handle, nil
}

func embeddedRunInfo(result models.RawRecord) (models.RawRecord, error) {
	content := result.List("content")
	if len(content) == 0 {
		return nil, nil
	}
	first := models.AsRecord(content[0])
	if first.Text("type") != contentTypeText {
		return nil, nil
	}
	text := first.Text("text")
	if text == "" {
		return nil, nil
	}

	if strings.HasPrefix(text, runInfoPrefix) {
		start := strings.Index(text, "{")
		if start < 0 {
			return nil, nil
		}
		text = text[start:]
	}
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewBufferString(text))
	dec.UseNumber()
	var inner map[string]interface{}
	if err := dec.Decode(&inner); err != nil {
		return nil, fmt.Errorf("decode embedded run information: %w", err)
	}
	return inner, nil
}
