// Package tweaks builds the per-node parameter map sent with every flow run.
package tweaks

import (
	"maps"

	"github.com/kailas-cloud/tribe/internal/domain/facet"
)

// SlotID addresses a node of the remote pipeline by identity. IDs must stay stable.
type SlotID string

// Pipeline node slots.
const (
	ChatInput         SlotID = "ChatInput-nM66I"
	VectorStore       SlotID = "AstraDB-wNHGZ"
	ParseData         SlotID = "ParseData-obnZv"
	ChatOutput        SlotID = "ChatOutput-plpD3"
	AnthropicModel    SlotID = "AnthropicModel-FvFsG"
	TextOutput        SlotID = "TextOutput-xfM5I"
	ParseJSONData     SlotID = "ParseJSONData-eeEA0"
	TribeInput        SlotID = "TextInput-n0QkP"
	MetadataFilter    SlotID = "MetaDataFilterConstructor-vAJyP"
	MinLikesInput     SlotID = "TextInput-P1BmY"
	AgeGroupInput     SlotID = "TextInput-4wKnt"
	CountryInput      SlotID = "TextInput-wg8O0"
	PlatformInput     SlotID = "TextInput-aYfSJ"
	GenderInput       SlotID = "TextInput-WCBMY"
	SpareInput        SlotID = "TextInput-Uk4ri"
	Memory            SlotID = "Memory-MeAfJ"
	AnalysisPrompt    SlotID = "Prompt-oU1Ym"
	RAGQueryInput     SlotID = "TextInput-JZobh"
	MinFollowersInput SlotID = "TextInput-UhThw"
	GPT4oModel        SlotID = "OpenAIModel-wA6hw"
	CombineText       SlotID = "CombineText-88DLO"
	GPT4oMiniModel    SlotID = "OpenAIModel-k9HRn"
	MergePrompt       SlotID = "Prompt-fJCSt"
	OpenAIEmbeddings  SlotID = "OpenAIEmbeddings-tspex"
)

// InputValueField is the record key every text-input node reads.
const InputValueField = "input_value"

var allSlots = []SlotID{
	ChatInput, VectorStore, ParseData, ChatOutput, AnthropicModel, TextOutput,
	ParseJSONData, TribeInput, MetadataFilter, MinLikesInput, AgeGroupInput,
	CountryInput, PlatformInput, GenderInput, SpareInput, Memory, AnalysisPrompt,
	RAGQueryInput, MinFollowersInput, GPT4oModel, CombineText, GPT4oMiniModel,
	MergePrompt, OpenAIEmbeddings,
}

// Record is the set of overrides for one node.
type Record map[string]any

// Map is the full tweaks payload keyed by node slot.
type Map map[SlotID]Record

// VectorStoreTweak holds the vector-store node overrides taken from configuration.
type VectorStoreTweak struct {
	APIEndpoint           string
	CollectionName        string
	Metric                string
	BatchSize             int
	NumberOfResults       int
	SearchType            string
	SearchScoreThreshold  float64
	CustomSearchTimeoutMS int
	TokenVariable         string
}

// Base returns a fresh template: every slot present, vector-store node populated.
func Base(vs VectorStoreTweak) Map {
	m := make(Map, len(allSlots))
	for _, id := range allSlots {
		m[id] = Record{}
	}
	m[VectorStore] = Record{
		"api_endpoint":                      vs.APIEndpoint,
		"batch_size":                        vs.BatchSize,
		"bulk_delete_concurrency":           nil,
		"bulk_insert_batch_concurrency":     nil,
		"bulk_insert_overwrite_concurrency": nil,
		"collection_indexing_policy":        "",
		"collection_name":                   vs.CollectionName,
		"custom_search_timeout_ms":          vs.CustomSearchTimeoutMS,
		"metadata_indexing_exclude":         "",
		"metadata_indexing_include":         "",
		"metric":                            vs.Metric,
		"namespace":                         "",
		"number_of_results":                 vs.NumberOfResults,
		"pre_delete_collection":             false,
		"search_filter":                     "",
		"search_input":                      "",
		"search_score_threshold":            vs.SearchScoreThreshold,
		"search_type":                       vs.SearchType,
		"setup_mode":                        "Off",
		"token":                             vs.TokenVariable,
	}
	return m
}

// Clone deep-copies m one level into each record.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, rec := range m {
		out[id] = maps.Clone(rec)
		if out[id] == nil {
			out[id] = Record{}
		}
	}
	return out
}

// Value returns the input_value of a slot, or "" when unset.
func (m Map) Value(id SlotID) string {
	v, _ := m[id][InputValueField].(string)
	return v
}

// Set overwrites the input_value of a slot, creating the slot when missing.
func (m Map) Set(id SlotID, value string) {
	rec, ok := m[id]
	if !ok || rec == nil {
		rec = Record{}
		m[id] = rec
	}
	rec[InputValueField] = value
}

// WithChatInput records the chat message on the chat-input node.
func (m Map) WithChatInput(text string) Map {
	m.Set(ChatInput, text)
	return m
}

// Apply overlays every non-blank facet onto m and returns it.
// Blank facets leave their slot untouched: a value set by an earlier Apply persists.
func Apply(m Map, sel facet.Selection) Map {
	for _, f := range []struct {
		slot  SlotID
		value string
	}{
		{TribeInput, sel.Tribe},
		{AgeGroupInput, sel.AgeGroup},
		{CountryInput, sel.Country},
		{GenderInput, sel.Gender},
		{PlatformInput, sel.Platform},
		{RAGQueryInput, sel.RAGQuery},
		{MinFollowersInput, sel.MinFollowerCount},
		{MinLikesInput, sel.MinLikesCount},
	} {
		if facet.IsBlank(f.value) {
			continue
		}
		m.Set(f.slot, f.value)
	}
	return m
}
