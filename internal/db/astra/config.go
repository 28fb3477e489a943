package astra

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Metric is the vector similarity function of a collection.
type Metric string

// Supported metrics.
const (
	MetricCosine     Metric = "cosine"
	MetricDotProduct Metric = "dot_product"
	MetricEuclidean  Metric = "euclidean"
)

// SetupMode controls when the collection is provisioned.
type SetupMode string

// Setup modes. Sync provisions before serving, async in the background, off never.
const (
	SetupSync  SetupMode = "sync"
	SetupAsync SetupMode = "async"
	SetupOff   SetupMode = "off"
)

// Defaults applied by NewStore.
const (
	DefaultNamespace      = "default_keyspace"
	DefaultBatchSize      = 20
	DefaultRequestTimeout = 30 * time.Second
)

// Config enumerates every vector store option.
type Config struct {
	APIEndpoint    string
	Token          string
	Namespace      string
	CollectionName string
	Metric         Metric
	Dimensions     int

	BatchSize                  int
	BulkInsertBatchConcurrency int
	BulkDeleteConcurrency      int

	SetupMode           SetupMode
	PreDeleteCollection bool

	// At most one of the three indexing options may be set.
	MetadataIndexingInclude  []string
	MetadataIndexingExclude  []string
	CollectionIndexingPolicy map[string]any

	RequestTimeout time.Duration
}

// ApplyDefaults fills zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Metric == "" {
		c.Metric = MetricCosine
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BulkInsertBatchConcurrency <= 0 {
		c.BulkInsertBatchConcurrency = 1
	}
	if c.BulkDeleteConcurrency <= 0 {
		c.BulkDeleteConcurrency = 1
	}
	if c.SetupMode == "" {
		c.SetupMode = SetupSync
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks required fields and mutually exclusive options.
func (c *Config) Validate() error {
	var errs []error
	if c.APIEndpoint == "" {
		errs = append(errs, errors.New("api_endpoint is required"))
	} else if u, err := url.Parse(c.APIEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_endpoint %q is not an absolute URL", c.APIEndpoint))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("token is required"))
	}
	if c.CollectionName == "" {
		errs = append(errs, errors.New("collection_name is required"))
	}
	switch c.Metric {
	case MetricCosine, MetricDotProduct, MetricEuclidean, "":
	default:
		errs = append(errs, fmt.Errorf("unknown metric %q", c.Metric))
	}
	switch c.SetupMode {
	case SetupSync, SetupAsync, SetupOff, "":
	default:
		errs = append(errs, fmt.Errorf("unknown setup_mode %q", c.SetupMode))
	}
	if c.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("dimensions must be >= 0, got %d", c.Dimensions))
	}

	set := 0
	for _, present := range []bool{
		len(c.MetadataIndexingInclude) > 0,
		len(c.MetadataIndexingExclude) > 0,
		len(c.CollectionIndexingPolicy) > 0,
	} {
		if present {
			set++
		}
	}
	if set > 1 {
		errs = append(errs, errors.New(
			"metadata_indexing_include, metadata_indexing_exclude and collection_indexing_policy are mutually exclusive"))
	}
	return errors.Join(errs...)
}

func (c *Config) keyspaceURL() string {
	return strings.TrimRight(c.APIEndpoint, "/") + "/api/json/v1/" + c.Namespace
}

func (c *Config) collectionURL() string {
	return c.keyspaceURL() + "/" + c.CollectionName
}

// indexing renders the collection indexing options, or nil when unset.
func (c *Config) indexing() map[string]any {
	switch {
	case len(c.MetadataIndexingInclude) > 0:
		return map[string]any{"allow": prefixed(c.MetadataIndexingInclude)}
	case len(c.MetadataIndexingExclude) > 0:
		return map[string]any{"deny": prefixed(c.MetadataIndexingExclude)}
	case len(c.CollectionIndexingPolicy) > 0:
		return c.CollectionIndexingPolicy
	}
	return nil
}

func prefixed(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.HasPrefix(f, MetadataPrefix) {
			out[i] = f
		} else {
			out[i] = MetadataPrefix + f
		}
	}
	return out
}
