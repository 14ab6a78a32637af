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

package grouping

import (
	"github.com/toolio/merchplan/core/dataset"
)

// Terminology:
// * the attributes that make up the grouping hierarchy are called grouped columns
// * each grouped column holds one block per group of the previous level
// * a block holds the groups of its parent's records, in first-appearance order
// All records of a group share the same value for its grouped column and every column above it.

type Group struct {
	Value       string
	Indices     []int
	ParentGroup *Group
	Block       *Block
	ChildBlock  *Block
	// the total number of grouped records is len(Indices)
	// number of child groups is len(ChildBlock.Groups)
}

// Path returns the values from the first grouped column down to g.
func (g *Group) Path() []string {
	var path []string
	for cur := g; cur != nil; cur = cur.ParentGroup {
		path = append([]string{cur.Value}, path...)
	}
	return path
}

type Block struct {
	Groups        []*Group
	ParentGroup   *Group
	GroupedColumn *GroupedColumn
}

type GroupedColumn struct {
	Attribute dataset.Attribute
	Level     int
	Blocks    []*Block
}

// Tree is a grouping hierarchy over a slice of records.
type Tree struct {
	Columns    []*GroupedColumn
	FirstBlock *Block
}

// Build groups records by each attribute in turn. Indices refer to positions in records.
// With no attributes the tree has no blocks.
func Build(records []*dataset.Record, attrs []dataset.Attribute) *Tree {
	t := &Tree{}
	if len(attrs) == 0 {
		return t
	}

	indices := make([]int, len(records))
	for i := range records {
		indices[i] = i
	}

	first := &GroupedColumn{Attribute: attrs[0], Level: 0}
	t.Columns = append(t.Columns, first)
	t.FirstBlock = newBlock(records, indices, first, nil)

	parentBlocks := []*Block{t.FirstBlock}
	for level, attr := range attrs[1:] {
		g := &GroupedColumn{Attribute: attr, Level: level + 1}
		t.Columns = append(t.Columns, g)

		// every parent group spawns a block
		for _, parentBlock := range parentBlocks {
			for _, parentGroup := range parentBlock.Groups {
				parentGroup.ChildBlock = newBlock(records, parentGroup.Indices, g, parentGroup)
			}
		}
		parentBlocks = g.Blocks
	}
	return t
}

// newBlock splits indices by the column's attribute value and registers the block on the column.
func newBlock(records []*dataset.Record, indices []int, column *GroupedColumn, parent *Group) *Block {
	b := &Block{ParentGroup: parent, GroupedColumn: column}
	column.Blocks = append(column.Blocks, b)

	byValue := make(map[string]*Group)
	for _, idx := range indices {
		v := records[idx].Attribute(column.Attribute)
		g, ok := byValue[v]
		if !ok {
			g = &Group{Value: v, ParentGroup: parent, Block: b}
			byValue[v] = g
			b.Groups = append(b.Groups, g)
		}
		g.Indices = append(g.Indices, idx)
	}
	return b
}

// Walk visits every group depth first, parents before children, in block order.
func (t *Tree) Walk(fn func(g *Group, level int)) {
	if t.FirstBlock == nil {
		return
	}
	var visit func(b *Block, level int)
	visit = func(b *Block, level int) {
		for _, g := range b.Groups {
			fn(g, level)
			if g.ChildBlock != nil {
				visit(g.ChildBlock, level+1)
			}
		}
	}
	visit(t.FirstBlock, 0)
}
