package topic

import (
	"reflect"
	"testing"
)

func TestMergeMetadataKeepsExistingKeys(t *testing.T) {
	t.Parallel()

	existing := Metadata{"a": 1}
	incoming := Metadata{"b": 2}

	merged := MergeMetadata(existing, incoming)
	want := Metadata{"a": 1, "b": 2}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("merged = %v, want %v", merged, want)
	}
}

func TestMergeMetadataExternalBlock(t *testing.T) {
	t.Parallel()

	existing := Metadata{MetadataExternalKey: map[string]any{"source": "x"}}
	incoming := Metadata{MetadataExternalKey: map[string]any{"id": "42"}}

	merged := MergeMetadata(existing, incoming)
	external, ok := merged[MetadataExternalKey].(map[string]any)
	if !ok {
		t.Fatalf("external block missing from merged metadata %v", merged)
	}
	if external["source"] != "x" || external["id"] != "42" {
		t.Fatalf("external block = %v, want both source and id preserved", external)
	}
}

func TestMergeMetadataIncomingOverwritesScalars(t *testing.T) {
	t.Parallel()

	existing := Metadata{"height": "180", "nationality": "Spain"}
	incoming := Metadata{"height": "181"}

	merged := MergeMetadata(existing, incoming)
	if merged["height"] != "181" {
		t.Fatalf("height = %v, want incoming value", merged["height"])
	}
	if merged["nationality"] != "Spain" {
		t.Fatalf("nationality = %v, want preserved value", merged["nationality"])
	}
}

func TestMergeMetadataDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	existing := Metadata{"a": 1, MetadataExternalKey: map[string]any{"source": "x"}}
	incoming := Metadata{MetadataExternalKey: map[string]any{"id": "42"}}

	_ = MergeMetadata(existing, incoming)

	existingExternal := existing[MetadataExternalKey].(map[string]any)
	if _, leaked := existingExternal["id"]; leaked {
		t.Fatalf("merge mutated the existing external block: %v", existingExternal)
	}
}

func TestExternalField(t *testing.T) {
	t.Parallel()

	m := Metadata{MetadataExternalKey: map[string]any{MetadataExternalIDKey: "133604"}}
	if got := m.ExternalField(MetadataExternalIDKey); got != "133604" {
		t.Fatalf("ExternalField = %q, want 133604", got)
	}
	if got := Metadata(nil).ExternalField(MetadataExternalIDKey); got != "" {
		t.Fatalf("ExternalField on nil metadata = %q, want empty", got)
	}
}

func TestTopicValidate(t *testing.T) {
	t.Parallel()

	valid := Topic{ID: "abc", Type: TypeClub, Slug: "city-fc", Title: "City FC"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid topic rejected: %v", err)
	}

	invalid := valid
	invalid.Type = Type("stadium")
	if err := invalid.Validate(); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
