package model_test

import (
	"encoding/json"
	"testing"

	"github.com/driplinehq/dripline-backend/internal/model"
)

func TestTagSetEncodeParse(t *testing.T) {
	s := model.NewTagSet("vip", "beta", "vip") // duplicate collapses
	if len(s) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(s))
	}
	if model.ParseTagSet(s.Encode()).Encode() != s.Encode() {
		t.Error("encode/parse round trip changed the set")
	}
	if model.ParseTagSet("").Encode() != "" {
		t.Error("empty encoding should parse to an empty set")
	}
	if model.ParseTagSet(" vip , beta ").Encode() != "beta,vip" {
		t.Error("expected whitespace trimmed and tags sorted")
	}
}

func TestStepSetGrowsIdempotently(t *testing.T) {
	s := model.NewStepSet()
	s.Add(1)
	s.Add(1)
	s.Add(3)
	if len(s) != 2 {
		t.Fatalf("step offsets must appear at most once, got %d entries", len(s))
	}
	if s.Encode() != "1,3" {
		t.Fatalf("expected stable sorted encoding, got %q", s.Encode())
	}
	if !model.ParseStepSet("1,3").Has(3) {
		t.Error("parsed set missing offset 3")
	}
	// junk entries in a hand-edited column are dropped, not fatal
	if model.ParseStepSet("1,x,3").Encode() != "1,3" {
		t.Error("expected non-numeric entries ignored")
	}
}

func TestSetJSONShapes(t *testing.T) {
	r := model.Recipient{
		ID:        "U1",
		Tags:      model.NewTagSet("vip"),
		SentSteps: model.NewStepSet(1, 3),
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Recipient
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Tags.Has("vip") || !decoded.SentSteps.Has(3) {
		t.Fatalf("JSON round trip lost set members: %s", b)
	}
}
