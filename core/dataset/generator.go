/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Merchplan Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dataset

import (
	"math/rand/v2"
)

// DefaultSeed makes generation reproducible unless a seed is configured.
const DefaultSeed uint64 = 42

// DefaultWeeks is the number of weekly periods generated by default.
const DefaultWeeks = 3

// unitRange is a half-open [Min, Max) range of unit counts.
type unitRange struct {
	Min, Max int64
}

var (
	grossSalesRange = unitRange{50, 500}
	receiptsRange   = unitRange{30, 400}
	bopRange        = unitRange{100, 1000}
	onOrderRange    = unitRange{0, 300}
)

// GenerateOptions configures the Data Generator.
type GenerateOptions struct {
	Seed   uint64
	Weeks  int
	Stores []StoreProfile
}

// Generate builds the full dataset: one record per week, store, category, brand,
// color and size, in that nesting order. Metric values are drawn independently per
// record from fixed unit ranges, gated by the store's types.
func Generate(opts GenerateOptions) *Dataset {
	if opts.Weeks <= 0 {
		opts.Weeks = DefaultWeeks
	}
	if len(opts.Stores) == 0 {
		opts.Stores = DefaultStores
	}

	catalog := NewCatalog(opts.Stores, opts.Weeks)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	records := make([]Record, 0, catalog.Cardinality())

	for _, week := range catalog.Weeks {
		for _, store := range catalog.Stores {
			for _, category := range catalog.Categories {
				for _, brand := range catalog.Brands {
					for _, color := range catalog.Colors {
						for _, size := range catalog.Sizes {
							r := Record{
								Category: category,
								Brand:    brand,
								Color:    color,
								Size:     size,
								Store:    store.Name,
								Week:     week,

								Channel:        store.Attribute(Channel),
								ChannelGroup:   store.Attribute(ChannelGroup),
								SellingChannel: store.Attribute(SellingChannel),
							}
							drawMetrics(rng, store, &r)
							records = append(records, r)
						}
					}
				}
			}
		}
	}
	return New(catalog, records)
}

// drawMetrics fills the metrics a store carries; the rest stay zero.
func drawMetrics(rng *rand.Rand, store StoreProfile, r *Record) {
	if store.Has(Selling) {
		r.GrossSalesUnits = draw(rng, grossSalesRange)
	}
	if store.Has(Source) {
		r.ReceiptsUnits = draw(rng, receiptsRange)
		r.BOPUnits = draw(rng, bopRange)
		r.OnOrderUnits = draw(rng, onOrderRange)
	}
	// An inventory store redraws BOP even when it is also a source.
	if store.Has(Inventory) {
		r.BOPUnits = draw(rng, bopRange)
	}
}

func draw(rng *rand.Rand, ur unitRange) int64 {
	return ur.Min + rng.Int64N(ur.Max-ur.Min)
}
