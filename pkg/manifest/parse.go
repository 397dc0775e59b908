package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a combined manifest stream back into documents, preserving
// document order. Each document must carry kind and metadata.name; the
// logical key becomes "{kind}-{name}". This is the rollback path: stored
// snapshots round-trip through a structured decoder, never text splitting.
func Parse(combined string) ([]Doc, error) {
	if strings.TrimSpace(combined) == "" {
		return nil, fmt.Errorf("empty manifest stream")
	}

	dec := yaml.NewDecoder(strings.NewReader(combined))
	var docs []Doc
	for {
		var obj map[string]any
		err := dec.Decode(&obj)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode manifest document %d: %w", len(docs)+1, err)
		}
		if obj == nil {
			continue
		}

		kind, _ := obj["kind"].(string)
		meta, _ := obj["metadata"].(map[string]any)
		name, _ := meta["name"].(string)
		namespace, _ := meta["namespace"].(string)
		if kind == "" || name == "" {
			return nil, fmt.Errorf("manifest document %d missing kind or metadata.name", len(docs)+1)
		}

		docs = append(docs, Doc{
			Key:       kind + "-" + name,
			Kind:      kind,
			Name:      name,
			Namespace: namespace,
			Object:    obj,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no manifest documents found")
	}
	return docs, nil
}

// ParseObject decodes a single JSON object body, as returned by the
// cluster API, into a document.
func ParseObject(body []byte) (Doc, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return Doc{}, fmt.Errorf("failed to decode object body: %w", err)
	}
	kind, _ := obj["kind"].(string)
	meta, _ := obj["metadata"].(map[string]any)
	name, _ := meta["name"].(string)
	namespace, _ := meta["namespace"].(string)
	if kind == "" || name == "" {
		return Doc{}, fmt.Errorf("object body missing kind or metadata.name")
	}
	return Doc{
		Key:       kind + "-" + name,
		Kind:      kind,
		Name:      name,
		Namespace: namespace,
		Object:    obj,
	}, nil
}
