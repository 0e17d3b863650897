package remote

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QueryNode is one node of the server's saved-query hierarchy, partially
// materialized locally. Children == nil means not yet loaded; an empty
// slice means loaded with no children.
type QueryNode struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	IsFolder    bool         `json:"isFolder,omitempty"`
	HasChildren bool         `json:"hasChildren,omitempty"`
	Children    []*QueryNode `json:"children,omitempty"`
}

// Loaded reports whether this node's children have been fetched.
func (n *QueryNode) Loaded() bool {
	return n.Children != nil
}

// Column describes one field the stored query declared for display.
type Column struct {
	Name         string `json:"name"`
	ReferenceName string `json:"referenceName"`
}

// QueryResult is the outcome of executing a stored query: the flat id list
// (flat work items plus relation targets) and the declared display columns.
type QueryResult struct {
	IDs     []int
	Columns []Column
}

// WorkItem is one fetched item's identity and normalized field bag.
type WorkItem struct {
	ID     int
	Fields map[string]string
}

// wire payloads

type queryListPayload struct {
	Count int          `json:"count"`
	Value []*QueryNode `json:"value"`
}

type workItemRef struct {
	ID int `json:"id"`
}

type workItemRelation struct {
	Target *workItemRef `json:"target"`
}

type wiqlPayload struct {
	QueryResultType   string             `json:"queryResultType"`
	Columns           []Column           `json:"columns"`
	WorkItems         []workItemRef      `json:"workItems"`
	WorkItemRelations []workItemRelation `json:"workItemRelations"`
}

type workItemPayload struct {
	ID     int                        `json:"id"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type workItemListPayload struct {
	Count int               `json:"count"`
	Value []workItemPayload `json:"value"`
}

type historyEntry struct {
	Rev   int    `json:"rev"`
	Value string `json:"value"`
}

type historyPayload struct {
	Count int            `json:"count"`
	Value []historyEntry `json:"value"`
}

// fieldString renders a raw field value as its searchable string form.
// The server sends strings, numbers, booleans, and identity objects; identity
// objects carry a displayName which is what users expect to search by.
func fieldString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if name, ok := obj["displayName"].(string); ok {
			return name
		}
		return ""
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprint(t)
	}
}

func (p workItemPayload) toWorkItem() WorkItem {
	fields := make(map[string]string, len(p.Fields)+1)
	for key, raw := range p.Fields {
		fields[key] = fieldString(raw)
	}
	return WorkItem{ID: p.ID, Fields: fields}
}
