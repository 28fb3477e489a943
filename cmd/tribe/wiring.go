package main

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/tribe/internal/config"
	"github.com/kailas-cloud/tribe/internal/db/astra"
	"github.com/kailas-cloud/tribe/internal/domain/search/filter"
	"github.com/kailas-cloud/tribe/internal/domain/search/mode"
	"github.com/kailas-cloud/tribe/internal/domain/tweaks"
	"github.com/kailas-cloud/tribe/internal/retry"
	chiTransport "github.com/kailas-cloud/tribe/internal/transport/chi"
)

func astraConfig(c config.VectorStoreConfig) astra.Config {
	return astra.Config{
		APIEndpoint:                c.APIEndpoint,
		Token:                      c.Token,
		Namespace:                  c.Namespace,
		CollectionName:             c.CollectionName,
		Metric:                     astra.Metric(c.Metric),
		Dimensions:                 c.Dimensions,
		BatchSize:                  c.BatchSize,
		BulkInsertBatchConcurrency: c.BulkInsertBatchConcurrency,
		BulkDeleteConcurrency:      c.BulkDeleteConcurrency,
		SetupMode:                  astra.SetupMode(c.SetupMode),
		PreDeleteCollection:        c.PreDeleteCollection,
		MetadataIndexingInclude:    c.MetadataIndexingInclude,
		MetadataIndexingExclude:    c.MetadataIndexingExclude,
		CollectionIndexingPolicy:   c.CollectionIndexingPolicy,
		RequestTimeout:             time.Duration(c.RequestTimeoutSec) * time.Second,
	}
}

func retryPolicy(c config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxAttempts,
		Min:         time.Duration(c.MinWaitMS) * time.Millisecond,
		Max:         time.Duration(c.MaxWaitMS) * time.Millisecond,
	}
}

func searchDefaults(c config.VectorStoreConfig) (chiTransport.SearchDefaults, error) {
	st, err := mode.Parse(c.SearchType, mode.Params{
		K:         c.NumberOfResults,
		Threshold: c.SearchScoreThreshold,
		Timeout:   time.Duration(c.CustomSearchTimeoutMS) * time.Millisecond,
		FetchK:    c.FetchK,
		Lambda:    c.MMRLambda,
	})
	if err != nil {
		return chiTransport.SearchDefaults{}, fmt.Errorf("vector_store.search_type: %w", err)
	}
	f, err := filter.ParseConditions(c.SearchFilter)
	if err != nil {
		return chiTransport.SearchDefaults{}, fmt.Errorf("vector_store.search_filter: %w", err)
	}
	return chiTransport.SearchDefaults{Strategy: st, Filter: f}, nil
}

// vectorStoreTweak mirrors the vector store settings into the flow's vector-store node.
func vectorStoreTweak(c config.VectorStoreConfig) tweaks.VectorStoreTweak {
	return tweaks.VectorStoreTweak{
		APIEndpoint:           c.APIEndpoint,
		CollectionName:        c.CollectionName,
		Metric:                c.Metric,
		BatchSize:             c.BatchSize,
		NumberOfResults:       c.NumberOfResults,
		SearchType:            c.SearchType,
		SearchScoreThreshold:  c.SearchScoreThreshold,
		CustomSearchTimeoutMS: c.CustomSearchTimeoutMS,
		TokenVariable:         c.TokenVariable,
	}
}
