package tweaks

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/tribe/internal/domain/facet"
)

func testBase() Map {
	return Base(VectorStoreTweak{
		APIEndpoint:           "https://db.example.com",
		CollectionName:        "climate_change",
		Metric:                "cosine",
		BatchSize:             50,
		NumberOfResults:       25,
		SearchType:            "Custom Search",
		SearchScoreThreshold:  0.3,
		CustomSearchTimeoutMS: 10000,
		TokenVariable:         "ASTRA_DB_APPLICATION_TOKEN",
	})
}

func TestBase_AllSlotsPresent(t *testing.T) {
	m := testBase()
	for _, id := range allSlots {
		if _, ok := m[id]; !ok {
			t.Errorf("slot %s missing from base template", id)
		}
	}
	if m[VectorStore]["collection_name"] != "climate_change" {
		t.Errorf("vector store collection = %v", m[VectorStore]["collection_name"])
	}
}

func TestBase_FreshCopies(t *testing.T) {
	a := testBase()
	b := testBase()
	a.Set(TribeInput, "3")
	if b.Value(TribeInput) != "" {
		t.Error("base templates must not share records")
	}
}

func TestApply_AllBlank_Unchanged(t *testing.T) {
	blanks := []facet.Selection{
		{},
		{Tribe: "", AgeGroup: " ", Country: "\t", Gender: "", Platform: "", RAGQuery: "  "},
	}
	for _, sel := range blanks {
		got := Apply(testBase(), sel)
		if !reflect.DeepEqual(got, testBase()) {
			t.Errorf("Apply(%+v) changed the template", sel)
		}
	}
}

func TestApply_SingleField(t *testing.T) {
	tests := []struct {
		name string
		sel  facet.Selection
		slot SlotID
		want string
	}{
		{"tribe", facet.Selection{Tribe: "0"}, TribeInput, "0"},
		{"age", facet.Selection{AgeGroup: "19_29"}, AgeGroupInput, "19_29"},
		{"country", facet.Selection{Country: "GB"}, CountryInput, "GB"},
		{"gender", facet.Selection{Gender: "female"}, GenderInput, "female"},
		{"platform", facet.Selection{Platform: "TikTok"}, PlatformInput, "TikTok"},
		{"rag query", facet.Selection{RAGQuery: "floods"}, RAGQueryInput, "floods"},
		{"min followers", facet.Selection{MinFollowerCount: "1000"}, MinFollowersInput, "1000"},
		{"min likes", facet.Selection{MinLikesCount: "100"}, MinLikesInput, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(testBase(), tt.sel)
			base := testBase()

			if got.Value(tt.slot) != tt.want {
				t.Errorf("slot %s = %q, want %q", tt.slot, got.Value(tt.slot), tt.want)
			}
			for id, rec := range base {
				if id == tt.slot {
					continue
				}
				if !reflect.DeepEqual(got[id], rec) {
					t.Errorf("slot %s changed: got %v, want %v", id, got[id], rec)
				}
			}
			if len(got) != len(base) {
				t.Errorf("slot count = %d, want %d", len(got), len(base))
			}
		})
	}
}

// A blank facet on a later submission must not clear the slot set earlier.
func TestApply_BlankDoesNotClearPreviousValue(t *testing.T) {
	m := testBase()
	m = Apply(m, facet.Selection{Country: "US", Tribe: "5"})
	m = Apply(m, facet.Selection{Country: "", Tribe: "2"})

	if m.Value(CountryInput) != "US" {
		t.Errorf("country = %q, want %q to persist", m.Value(CountryInput), "US")
	}
	if m.Value(TribeInput) != "2" {
		t.Errorf("tribe = %q, want %q", m.Value(TribeInput), "2")
	}
}

func TestApply_KeysNeverRemoved(t *testing.T) {
	m := testBase()
	before := len(m)
	for _, sel := range []facet.Selection{{Tribe: "1"}, {}, {Gender: "male"}} {
		m = Apply(m, sel)
	}
	if len(m) != before {
		t.Errorf("slot count changed from %d to %d", before, len(m))
	}
}

func TestApply_KeepsOtherRecordFields(t *testing.T) {
	m := Map{PlatformInput: Record{InputValueField: "", "note": "keep"}}
	Apply(m, facet.Selection{Platform: "YouTube"})
	if m[PlatformInput]["note"] != "keep" {
		t.Error("Apply must only overwrite input_value")
	}
}

func TestWithChatInput(t *testing.T) {
	m := testBase().WithChatInput("hello")
	if m.Value(ChatInput) != "hello" {
		t.Errorf("chat input = %q", m.Value(ChatInput))
	}
}

func TestClone_Independent(t *testing.T) {
	m := testBase()
	c := m.Clone()
	c.Set(GenderInput, "male")
	if m.Value(GenderInput) != "" {
		t.Error("clone aliases the original")
	}
	if !reflect.DeepEqual(m.Clone(), m) {
		t.Error("clone differs from original")
	}
}
