package extract

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
)

// Class names counted inside a project section.
const (
	FloorClassName = "Floor"
	RoomClassName  = "Room"
)

// ProjectExtractor builds a ProjectRecord from a project API document.
type ProjectExtractor struct {
	logger *zap.Logger
}

// NewProjectExtractor builds a ProjectExtractor.
func NewProjectExtractor(logger *zap.Logger) *ProjectExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectExtractor{logger: logger}
}

// Extract accepts string, []byte, json.RawMessage or map[string]any. Text that
// does not decode to a JSON object is a soft failure.
func (e *ProjectExtractor) Extract(input any) (crawler.Extraction, error) {
	var doc map[string]any
	switch v := input.(type) {
	case map[string]any:
		doc = v
	case string:
		return e.extractText([]byte(v))
	case []byte:
		return e.extractText(v)
	case json.RawMessage:
		return e.extractText(v)
	default:
		e.logger.Error("invalid project data type", zap.String("type", fmt.Sprintf("%T", input)))
		return crawler.Extraction{}, fmt.Errorf("project extractor got %T: %w", input, crawler.ErrUnsupportedInput)
	}
	return crawler.ProjectExtraction(buildRecord(doc)), nil
}

func (e *ProjectExtractor) extractText(raw []byte) (crawler.Extraction, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		e.logger.Error("could not decode project data", zap.Error(err))
		return crawler.FailedExtraction("decode project json: %v", err), nil
	}
	if doc == nil {
		e.logger.Error("project data is not a json object")
		return crawler.FailedExtraction("project json is not an object"), nil
	}
	return crawler.ProjectExtraction(buildRecord(doc)), nil
}

func buildRecord(doc map[string]any) crawler.ProjectRecord {
	sections := asSlice(doc["items"])
	record := crawler.ProjectRecord{}
	if len(sections) > 0 {
		if first, ok := sections[0].(map[string]any); ok {
			record.Hash = asString(first["hash"])
			record.Name = asString(first["name"])
		}
	}
	record.FloorCount, record.RoomCount = countFloorsAndRooms(sections)
	return record
}

// countFloorsAndRooms sums Floor entries of every section's data.items and
// the Room entries nested directly under each floor.
func countFloorsAndRooms(sections []any) (floors, rooms int) {
	for _, raw := range sections {
		section, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		data := sectionData(section["data"])
		if data == nil {
			continue
		}
		for _, floor := range itemsWithClass(asSlice(data["items"]), FloorClassName) {
			floors++
			rooms += len(itemsWithClass(asSlice(floor["items"]), RoomClassName))
		}
	}
	return floors, rooms
}

// sectionData accepts either an embedded object or a JSON-encoded string.
func sectionData(v any) map[string]any {
	switch data := v.(type) {
	case map[string]any:
		return data
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			return nil
		}
		return decoded
	default:
		return nil
	}
}

func itemsWithClass(items []any, className string) []map[string]any {
	var matched []map[string]any
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := item["className"].(string); name == className {
			matched = append(matched, item)
		}
	}
	return matched
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
