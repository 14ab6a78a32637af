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
	"fmt"
	"strconv"
	"strings"
)

// StoreType controls which metrics a store carries.
type StoreType string

const (
	// Selling stores record gross sales.
	Selling StoreType = "selling"
	// Source stores receive goods and hold on-order and beginning-of-period inventory.
	Source StoreType = "source"
	// Inventory stores hold beginning-of-period inventory.
	Inventory StoreType = "inventory"
)

// ParseStoreType parses a store type name, case-insensitively.
func ParseStoreType(s string) (StoreType, error) {
	switch t := StoreType(strings.ToLower(strings.TrimSpace(s))); t {
	case Selling, Source, Inventory:
		return t, nil
	}
	return "", fmt.Errorf("unknown store type %q", s)
}

// UnassignedChannel stands in for channel metadata a store profile leaves out.
const UnassignedChannel = "Unassigned"

// reservedValueChars separate filter values in URLs and group keys, so catalog
// values must not contain them.
const reservedValueChars = "|\x1f"

// StoreProfile describes one store (location) of the catalog and the channel
// hierarchy it belongs to.
type StoreProfile struct {
	Name           string      `json:"name"`
	Types          []StoreType `json:"types"`
	Channel        string      `json:"channel,omitempty"`
	ChannelGroup   string      `json:"channel_group,omitempty"`
	SellingChannel string      `json:"selling_channel,omitempty"`
}

// Has reports whether the store has the given type.
func (s StoreProfile) Has(t StoreType) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// Attribute returns the value the store gives to its records for a
// store-derived attribute, or "" for the others.
func (s StoreProfile) Attribute(a Attribute) string {
	var v string
	switch a {
	case Store:
		return s.Name
	case Channel:
		v = s.Channel
	case ChannelGroup:
		v = s.ChannelGroup
	case SellingChannel:
		v = s.SellingChannel
	default:
		return ""
	}
	if v == "" {
		return UnassignedChannel
	}
	return v
}

// ParseStoreProfile parses "Name[:type|type[:channel/group/selling]]". A bare
// name defaults to a selling store; missing channel levels are unassigned.
func ParseStoreProfile(s string) (StoreProfile, error) {
	parts := strings.SplitN(s, ":", 3)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return StoreProfile{}, fmt.Errorf("store %q has no name", s)
	}
	if err := checkValue("store", name); err != nil {
		return StoreProfile{}, err
	}
	p := StoreProfile{Name: name}

	var types string
	if len(parts) > 1 {
		types = parts[1]
	}
	if strings.TrimSpace(types) == "" {
		p.Types = []StoreType{Selling}
	} else {
		for _, part := range strings.Split(types, "|") {
			t, err := ParseStoreType(part)
			if err != nil {
				return StoreProfile{}, fmt.Errorf("store %q: %w", name, err)
			}
			if !p.Has(t) {
				p.Types = append(p.Types, t)
			}
		}
	}

	if len(parts) == 3 {
		levels := strings.Split(parts[2], "/")
		if len(levels) > 3 {
			return StoreProfile{}, fmt.Errorf("store %q: channel %q has more than three levels", name, parts[2])
		}
		fields := []*string{&p.Channel, &p.ChannelGroup, &p.SellingChannel}
		for i, level := range levels {
			level = strings.TrimSpace(level)
			if err := checkValue("channel", level); err != nil {
				return StoreProfile{}, fmt.Errorf("store %q: %w", name, err)
			}
			*fields[i] = level
		}
	}
	return p, nil
}

func checkValue(kind, v string) error {
	if strings.ContainsAny(v, reservedValueChars) {
		return fmt.Errorf("%s %q contains a reserved character", kind, v)
	}
	return nil
}

// DefaultStores is the store list used when none is configured.
var DefaultStores = []StoreProfile{
	{Name: "Downtown", Types: []StoreType{Selling}, Channel: "Retail", ChannelGroup: "Stores", SellingChannel: "In-Store"},
	{Name: "Outlet", Types: []StoreType{Selling, Inventory}, Channel: "Retail", ChannelGroup: "Outlets", SellingChannel: "In-Store"},
	{Name: "DC East", Types: []StoreType{Source, Inventory}, Channel: "Wholesale", ChannelGroup: "Distribution", SellingChannel: "Ecommerce"},
}

// Catalog holds the enumerated domain of every attribute.
type Catalog struct {
	Categories []string
	Brands     []string
	Colors     []string
	Sizes      []string
	Stores     []StoreProfile
	Weeks      []string
}

// NewCatalog returns the fixed product catalog for the given stores and week count.
func NewCatalog(stores []StoreProfile, weeks int) Catalog {
	c := Catalog{
		Categories: []string{"Shoes", "Apparel", "Accessories"},
		Brands:     []string{"Acme", "Globex", "Initech"},
		Colors:     []string{"Black", "White", "Red"},
		Sizes:      []string{"S", "M", "L"},
		Stores:     stores,
	}
	for w := 1; w <= weeks; w++ {
		c.Weeks = append(c.Weeks, strconv.Itoa(w))
	}
	return c
}

// Domain returns the values of an attribute in display order.
func (c Catalog) Domain(a Attribute) []string {
	switch a {
	case Category:
		return c.Categories
	case Brand:
		return c.Brands
	case Color:
		return c.Colors
	case Size:
		return c.Sizes
	case Store, Channel, ChannelGroup, SellingChannel:
		return c.storeValues(a)
	case Week:
		return c.Weeks
	}
	return nil
}

// storeValues lists the distinct values of a store-derived attribute in store order.
func (c Catalog) storeValues(a Attribute) []string {
	seen := make(map[string]bool, len(c.Stores))
	var out []string
	for _, s := range c.Stores {
		v := s.Attribute(a)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Cardinality is the number of records a full generation produces.
func (c Catalog) Cardinality() int {
	return len(c.Weeks) * len(c.Stores) * len(c.Categories) * len(c.Brands) * len(c.Colors) * len(c.Sizes)
}
