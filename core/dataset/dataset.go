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

// Package dataset defines the merchandise plan data model: typed records with
// categorical attributes and unit metrics, and the catalog their values come from.
package dataset

import "fmt"

// Attribute names a categorical column of a Record.
type Attribute string

const (
	Category Attribute = "Category"
	Brand    Attribute = "Brand"
	Color    Attribute = "Color"
	Size     Attribute = "Size"
	Store    Attribute = "Store"
	Week     Attribute = "Week"

	// Channel, ChannelGroup and SellingChannel come from the record's store profile.
	Channel        Attribute = "Channel"
	ChannelGroup   Attribute = "Channel Group"
	SellingChannel Attribute = "Selling Channel"
)

// Attributes lists every attribute in display order.
var Attributes = []Attribute{Category, Brand, Color, Size, Channel, ChannelGroup, SellingChannel, Store, Week}

// ParseAttribute returns the attribute with the given name.
func ParseAttribute(name string) (Attribute, error) {
	for _, a := range Attributes {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown attribute %q", name)
}

// Metric names a numeric unit column of a Record.
type Metric string

const (
	GrossSalesUnits Metric = "Gross Sales Units"
	ReceiptsUnits   Metric = "Receipts Units"
	BOPUnits        Metric = "BOP Units"
	OnOrderUnits    Metric = "On Order Units"
)

// Metrics lists the four tracked metrics in display order.
var Metrics = []Metric{GrossSalesUnits, ReceiptsUnits, BOPUnits, OnOrderUnits}

// Record is one row of the synthetic dataset.
type Record struct {
	Category string `json:"Category"`
	Brand    string `json:"Brand"`
	Color    string `json:"Color"`
	Size     string `json:"Size"`
	Store    string `json:"Store"`
	Week     string `json:"Week"`

	Channel        string `json:"Channel"`
	ChannelGroup   string `json:"Channel Group"`
	SellingChannel string `json:"Selling Channel"`

	GrossSalesUnits int64 `json:"Gross Sales Units"`
	ReceiptsUnits   int64 `json:"Receipts Units"`
	BOPUnits        int64 `json:"BOP Units"`
	OnOrderUnits    int64 `json:"On Order Units"`
}

// Attribute returns the value of the given attribute.
func (r *Record) Attribute(a Attribute) string {
	switch a {
	case Category:
		return r.Category
	case Brand:
		return r.Brand
	case Color:
		return r.Color
	case Size:
		return r.Size
	case Store:
		return r.Store
	case Week:
		return r.Week
	case Channel:
		return r.Channel
	case ChannelGroup:
		return r.ChannelGroup
	case SellingChannel:
		return r.SellingChannel
	}
	return ""
}

// Metric returns the value of the given metric.
func (r *Record) Metric(m Metric) int64 {
	switch m {
	case GrossSalesUnits:
		return r.GrossSalesUnits
	case ReceiptsUnits:
		return r.ReceiptsUnits
	case BOPUnits:
		return r.BOPUnits
	case OnOrderUnits:
		return r.OnOrderUnits
	}
	return 0
}

// Dataset is the immutable, ordered sequence of records generated once per process.
type Dataset struct {
	catalog Catalog
	records []Record
}

// New wraps records generated from catalog. The slice is owned by the Dataset afterwards.
func New(catalog Catalog, records []Record) *Dataset {
	return &Dataset{catalog: catalog, records: records}
}

// Records returns the records in generation order. Callers must not modify them.
func (d *Dataset) Records() []Record {
	return d.records
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Catalog returns the catalog the records were drawn from.
func (d *Dataset) Catalog() Catalog {
	return d.catalog
}
