package domain

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// MaterialAir is the material of the empty stack
const MaterialAir = "AIR"

// ItemStack is an opaque stack descriptor: material + amount + metadata.
// Meta carries display name, lore, enchantments and anything else the
// crafting engine attaches; the core never interprets it.
type ItemStack struct {
	Material string            `json:"material" yaml:"material"`
	Amount   int               `json:"amount" yaml:"amount"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NewItemStack returns a stack of amount items of the given material.
// Materials are stored upper-case.
func NewItemStack(material string, amount int) ItemStack {
	return ItemStack{Material: strings.ToUpper(strings.TrimSpace(material)), Amount: amount}
}

// IsEmpty reports whether the stack is the "empty/none" sentinel
func (s ItemStack) IsEmpty() bool {
	return s.Material == "" || strings.EqualFold(s.Material, MaterialAir) || s.Amount <= 0
}

// Clone returns a deep copy of the stack
func (s ItemStack) Clone() ItemStack {
	c := s
	if s.Meta != nil {
		c.Meta = maps.Clone(s.Meta)
	}
	return c
}

// WithMeta returns a copy of the stack with one metadata entry set
func (s ItemStack) WithMeta(key, value string) ItemStack {
	c := s.Clone()
	if c.Meta == nil {
		c.Meta = make(map[string]string, 1)
	}
	c.Meta[key] = value
	return c
}

// SameType reports whether both stacks describe the same kind of item, ignoring amount
func (s ItemStack) SameType(o ItemStack) bool {
	return strings.EqualFold(s.Material, o.Material) && metaEqual(s.Meta, o.Meta)
}

// Equal compares material, amount and metadata
func (s ItemStack) Equal(o ItemStack) bool {
	return s.Amount == o.Amount && s.SameType(o)
}

func (s ItemStack) String() string {
	if len(s.Meta) == 0 {
		return fmt.Sprintf("%dx%s", s.Amount, s.Material)
	}
	keys := make([]string, 0, len(s.Meta))
	for k := range s.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s.Meta[k])
	}
	return fmt.Sprintf("%dx%s{%s}", s.Amount, s.Material, strings.Join(parts, ","))
}

// nil and empty metadata are the same thing
func metaEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
