package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcpanel/gcpanel-backend/internal/integrations/domain"
	"github.com/gcpanel/gcpanel-backend/internal/integrations/repository"
)

// ImportService turns heterogeneous connector payloads into normalized
// records and stores them.
type ImportService struct {
	records *repository.RecordRepository
}

// NewImportService creates a new ImportService
func NewImportService(records *repository.RecordRepository) *ImportService {
	return &ImportService{records: records}
}

// ImportResult reports the outcome of one batch import.
type ImportResult struct {
	Normalized int  `json:"normalized"`
	Stored     int  `json:"stored"`
	Buffered   bool `json:"buffered"`
}

// Import normalizes raw payloads from the named source and upserts them.
func (s *ImportService) Import(ctx context.Context, source string, payloads []json.RawMessage) (ImportResult, error) {
	now := time.Now().UTC()

	records := make([]domain.Record, 0, len(payloads))
	for _, p := range payloads {
		for _, item := range flattenPayload(p) {
			records = append(records, normalizeItem(source, item, now))
		}
	}

	stored, buffered, err := s.records.UpsertBatch(ctx, records)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to store imported records: %w", err)
	}
	return ImportResult{Normalized: len(records), Stored: stored, Buffered: buffered}, nil
}

// List exposes stored records for the API layer.
func (s *ImportService) List(ctx context.Context, f repository.ListFilter) ([]domain.Record, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.records.List(ctx, f)
}

// wrapperKeys are the collection envelopes the providers use. Procore wraps
// in "items", FieldWire in "tasks", PlanGrid and BuildingConnected in "data".
var wrapperKeys = []string{"items", "tasks", "data", "records", "results"}

// flattenPayload unwraps a raw payload into individual JSON objects. It
// accepts a bare array, an object carrying an array under a known wrapper
// key, or a single object.
func flattenPayload(raw json.RawMessage) []json.RawMessage {
	trimmed := strings.TrimLeft(string(raw), " \t\r\n")
	if trimmed == "" {
		return nil
	}

	if trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return []json.RawMessage{raw}
		}
		return arr
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return []json.RawMessage{raw}
	}
	for _, key := range wrapperKeys {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(inner, &arr); err == nil {
			return arr
		}
	}
	return []json.RawMessage{raw}
}

func normalizeItem(source string, item json.RawMessage, fetchedAt time.Time) domain.Record {
	// Providers disagree on field names and types, so decode loosely.
	var fields map[string]any
	_ = json.Unmarshal(item, &fields)

	externalID := firstNonEmpty(stringField(fields, "id"), stringField(fields, "uid"), stringField(fields, "guid"))
	if externalID == "" {
		externalID = "gen-" + uuid.NewString()
	}

	projectRef := firstNonEmpty(stringField(fields, "project_id"), stringField(fields, "project_ref"))

	return domain.Record{
		ExternalID: externalID,
		Source:     source,
		Kind:       classifyKind(fields),
		ProjectRef: projectRef,
		Payload:    item,
		FetchedAt:  fetchedAt,
	}
}

func classifyKind(fields map[string]any) string {
	declared := strings.ToLower(firstNonEmpty(stringField(fields, "type"), stringField(fields, "kind")))
	switch declared {
	case "rfi", "rfis":
		return domain.KindRFI
	case "task", "tasks", "punch", "punch_item":
		return domain.KindTask
	case "document", "drawing", "sheet", "submittal":
		return domain.KindDocument
	case "bid", "proposal":
		return domain.KindBid
	}

	switch {
	case hasField(fields, "question"), hasField(fields, "subject") && hasField(fields, "number"):
		return domain.KindRFI
	case hasField(fields, "task_name"):
		return domain.KindTask
	case hasField(fields, "file_name"), hasField(fields, "sheet_name"):
		return domain.KindDocument
	case hasField(fields, "bid_amount"):
		return domain.KindBid
	}
	return domain.KindUnknown
}

// stringField renders a field as a string, accepting both string and
// numeric IDs.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func hasField(fields map[string]any, key string) bool {
	v, ok := fields[key]
	return ok && v != nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
