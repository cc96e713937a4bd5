package avro

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/hamba/avro/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/riferrei/srclient"
	"golang.org/x/sync/singleflight"

	"github.com/siqueiraa/FrameFlow/pkg/frame"
)

// Confluent wire format: magic byte (1) + schema ID (4) + Avro body.
const wireHeaderSize = 5

var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

type schemaEntry struct {
	id     int
	schema avro.Schema
}

// Registry encodes frames in Confluent wire format against a schema registry,
// caching parsed schemas by subject and by ID.
type Registry struct {
	client    srclient.ISchemaRegistryClient
	bySubject sync.Map // subject -> schemaEntry
	byID      sync.Map // id -> avro.Schema
	group     singleflight.Group
}

// NewRegistry connects to the schema registry at url.
func NewRegistry(url string) *Registry {
	return NewRegistryWithClient(srclient.CreateSchemaRegistryClient(url))
}

// NewRegistryWithClient wraps an existing client, e.g. srclient's mock.
func NewRegistryWithClient(client srclient.ISchemaRegistryClient) *Registry {
	return &Registry{client: client}
}

// EnsureFrameSchema registers FrameSchemaJSON under subject unless an
// equivalent schema is already the latest version.
func (r *Registry) EnsureFrameSchema(subject string) (int, error) {
	s, err := CreateSchemaIfNotExists(r.client, subject, FrameSchemaJSON, srclient.Avro)
	if err != nil {
		return 0, fmt.Errorf("register schema %s: %w", subject, err)
	}
	return s.ID(), nil
}

// EncodeFrame marshals f with the latest schema of subject and prepends the
// wire header.
func (r *Registry) EncodeFrame(subject string, f *frame.Frame) ([]byte, error) {
	id, schema, err := r.schemaForSubject(subject)
	if err != nil {
		return nil, err
	}
	body, err := avro.Marshal(schema, FromFrame(f))
	if err != nil {
		return nil, fmt.Errorf("marshal for %s: %w", subject, err)
	}
	if id < 0 || id > 0xFFFFFFFF {
		return nil, fmt.Errorf("schema ID %d out of uint32 range", id)
	}
	out := make([]byte, wireHeaderSize+len(body))
	binary.BigEndian.PutUint32(out[1:wireHeaderSize], uint32(id))
	copy(out[wireHeaderSize:], body)
	return out, nil
}

// DecodeFrame reverses EncodeFrame, looking the schema up by the ID in the
// header.
func (r *Registry) DecodeFrame(payload []byte) (*frame.Frame, error) {
	if len(payload) < wireHeaderSize || payload[0] != 0 {
		return nil, fmt.Errorf("invalid wire format: missing magic byte or too short")
	}
	id := int(binary.BigEndian.Uint32(payload[1:wireHeaderSize]))
	schema, err := r.schemaForID(id)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := avro.Unmarshal(schema, payload[wireHeaderSize:], &rec); err != nil {
		return nil, fmt.Errorf("unmarshal for ID %d: %w", id, err)
	}
	return rec.Frame()
}

func (r *Registry) schemaForSubject(subject string) (int, avro.Schema, error) {
	if v, ok := r.bySubject.Load(subject); ok {
		se := v.(schemaEntry)
		return se.id, se.schema, nil
	}
	val, err, _ := r.group.Do("subject:"+subject, func() (any, error) {
		meta, err := r.client.GetLatestSchema(subject)
		if err != nil {
			return nil, fmt.Errorf("fetch schema %s: %w", subject, err)
		}
		schema, err := avro.Parse(meta.Schema())
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", subject, err)
		}
		se := schemaEntry{id: meta.ID(), schema: schema}
		r.bySubject.Store(subject, se)
		r.byID.Store(se.id, schema)
		return se, nil
	})
	if err != nil {
		return 0, nil, err
	}
	se := val.(schemaEntry)
	return se.id, se.schema, nil
}

func (r *Registry) schemaForID(id int) (avro.Schema, error) {
	if v, ok := r.byID.Load(id); ok {
		return v.(avro.Schema), nil
	}
	val, err, _ := r.group.Do(fmt.Sprintf("id:%d", id), func() (any, error) {
		meta, err := r.client.GetSchema(id)
		if err != nil {
			return nil, fmt.Errorf("fetch schema ID %d: %w", id, err)
		}
		schema, err := avro.Parse(meta.Schema())
		if err != nil {
			return nil, fmt.Errorf("parse schema ID %d: %w", id, err)
		}
		r.byID.Store(id, schema)
		return schema, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(avro.Schema), nil
}

// CreateSchemaIfNotExists returns the latest schema of subject when it is
// equivalent to schemaJSON after normalization, and registers schemaJSON when
// the subject has no schema yet. A differing existing schema is kept and
// returned; evolving it is left to the registry's operators.
func CreateSchemaIfNotExists(
	client srclient.ISchemaRegistryClient,
	subject, schemaJSON string,
	schemaType srclient.SchemaType,
) (*srclient.Schema, error) {
	existing, err := client.GetLatestSchema(subject)
	if err != nil {
		return client.CreateSchema(subject, schemaJSON, schemaType)
	}

	same, err := equivalentSchemas(existing.Schema(), schemaJSON)
	if err != nil {
		log.Printf("[Avro] Failed to normalize schemas for %s: %v", subject, err)
		same = existing.Schema() == schemaJSON
	}
	if same {
		return existing, nil
	}

	log.Printf("[Avro] Schema for %s exists but differs, keeping version %d", subject, existing.Version())
	return existing, nil
}

func equivalentSchemas(a, b string) (bool, error) {
	na, err := normalizeSchemaJSON(a)
	if err != nil {
		return false, err
	}
	nb, err := normalizeSchemaJSON(b)
	if err != nil {
		return false, err
	}
	return na == nb, nil
}

// normalizeSchemaJSON re-marshals a schema with record fields sorted by name
// and union branches sorted, so that equivalent schemas compare equal.
func normalizeSchemaJSON(schemaJSON string) (string, error) {
	var schema any
	if err := jsonStd.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return "", fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	out, err := jsonStd.Marshal(normalizeNode(schema))
	if err != nil {
		return "", fmt.Errorf("failed to marshal normalized schema: %w", err)
	}
	return string(out), nil
}

func normalizeNode(node any) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = normalizeNode(v)
		}
		if fields, ok := out["fields"].([]any); ok {
			slices.SortStableFunc(fields, func(a, b any) int {
				return cmp.Compare(fieldName(a), fieldName(b))
			})
		}
		if union, ok := out["type"].([]any); ok {
			sortUnion(union)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = normalizeNode(v)
		}
		return out
	default:
		return n
	}
}

func fieldName(v any) string {
	m, _ := v.(map[string]any)
	name, _ := m["name"].(string)
	return name
}

func sortUnion(union []any) {
	slices.SortStableFunc(union, func(a, b any) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
}
