package cosmos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Field names with meaning to the service.
const (
	FieldID   = "id"
	FieldETag = "_etag"
)

// EnsureID returns doc unchanged when it has an "id" key, whatever its
// value. Otherwise it returns a copy with a freshly generated UUID string as
// id; doc itself is not modified. An empty or non-string id is left for the
// write to reject.
func EnsureID(doc *Document) *Document {
	if doc == nil {
		doc = NewDocument()
	}
	if _, ok := doc.Get(FieldID); ok {
		return doc
	}
	out := doc.Clone()
	out.Set(FieldID, String(uuid.NewString()))
	return out
}

// ExtractPartitionKey returns the partition key value of doc read from attr,
// or def when the attribute is absent or null. Numbers and booleans are
// returned in their JSON text form. attr may name a nested field using "/"
// separators, as in a partition key path without the leading slash.
func ExtractPartitionKey(doc *Document, attr, def string) string {
	v, ok := lookupPath(doc, attr)
	if !ok || v.IsNull() {
		return def
	}
	return v.Text()
}

// PartitionKeyAttr converts a partition key path such as "/pk" into the
// attribute name used with ExtractPartitionKey.
func PartitionKeyAttr(path string) string {
	return strings.TrimPrefix(path, "/")
}

// Merge returns a new document holding doc's fields overwritten by patch's.
// Keys absent from patch keep doc's values. Neither input is modified.
func Merge(doc, patch *Document) *Document {
	out := doc.Clone()
	if out == nil {
		out = NewDocument()
	}
	if patch == nil {
		return out
	}
	for _, k := range patch.keys {
		out.Set(k, patch.fields[k].clone())
	}
	return out
}

func lookupPath(doc *Document, attr string) (Value, bool) {
	attr = strings.TrimPrefix(attr, "/")
	if doc == nil || attr == "" {
		return Value{}, false
	}
	parts := strings.Split(attr, "/")
	cur := doc
	for i, p := range parts {
		v, ok := cur.Get(p)
		if !ok {
			return Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := v.AsObject()
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return Value{}, false
}

// checkItem validates doc for a write to scope under partition key pk.
// The returned bytes are the encoded document.
func checkItem(op string, scope ContainerScope, doc *Document, pk string) ([]byte, error) {
	if doc == nil {
		return nil, validationError(op, "document is nil")
	}
	idVal, ok := doc.Get(FieldID)
	if !ok || idVal.IsNull() {
		return nil, validationError(op, "document has no %q field", FieldID)
	}
	if id, ok := idVal.AsString(); !ok || id == "" {
		return nil, validationError(op, "document %q must be a non-empty string", FieldID)
	}
	if pk == "" {
		return nil, validationError(op, "partition key value is empty")
	}
	if attr := scope.PartitionKeyAttr(); attr != "" {
		v, ok := lookupPath(doc, attr)
		if !ok || v.IsNull() {
			return nil, validationError(op, "document has no partition key attribute %q", attr)
		}
		if v.Text() != pk {
			return nil, validationError(op, "partition key %q does not match attribute %q value %q", pk, attr, v.Text())
		}
	}
	body, err := doc.MarshalJSON()
	if err != nil {
		return nil, newError(KindValidation, op, 0, err)
	}
	return body, nil
}

// DecodeDocuments reads a JSON array of objects, as produced by the file
// collaborators that feed bulk loads. A single top-level object is accepted
// as a one-element array.
func DecodeDocuments(r io.Reader) ([]*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError(KindValidation, "decode_documents", 0, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, validationError("decode_documents", "empty input")
	}

	if trimmed[0] == '{' {
		d, err := ParseDocument(trimmed)
		if err != nil {
			return nil, newError(KindValidation, "decode_documents", 0, err)
		}
		return []*Document{d}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, newError(KindValidation, "decode_documents", 0, err)
	}
	docs := make([]*Document, 0, len(raw))
	for i, msg := range raw {
		d, err := ParseDocument(msg)
		if err != nil {
			return nil, newError(KindValidation, "decode_documents", 0, fmt.Errorf("element %d: %w", i, err))
		}
		docs = append(docs, d)
	}
	return docs, nil
}
