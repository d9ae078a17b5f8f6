package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/david/tax-radar/internal/models"
)

const keywordSep = ", "

// JoinKeywords serializes keywords for the keywords column.
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, keywordSep)
}

// SplitKeywords is the inverse of JoinKeywords. An empty column yields an empty list.
func SplitKeywords(raw string) []string {
	out := []string{}
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// EncodeEntities serializes entities as a JSON array of {"text","type"} objects.
func EncodeEntities(entities []models.Entity) ([]byte, error) {
	if entities == nil {
		entities = []models.Entity{}
	}
	return json.Marshal(entities)
}

// DecodeEntities parses the entities column strictly: it must be a JSON array
// of objects with exactly non-empty "text" and "type" fields.
func DecodeEntities(raw []byte) ([]models.Entity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Entity{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var entities []models.Entity
	if err := dec.Decode(&entities); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode entities: trailing data")
	}
	for i, e := range entities {
		if strings.TrimSpace(e.Text) == "" || strings.TrimSpace(e.Type) == "" {
			return nil, fmt.Errorf("decode entities: entry %d is missing text or type", i)
		}
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	return entities, nil
}
