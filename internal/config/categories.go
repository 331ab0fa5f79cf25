package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"filenest/pkg/types"

	"gopkg.in/yaml.v3"
)

// Categories is the ordered category list. In YAML and JSON it is written as a
// mapping of category name to extension list, the shape users edit by hand:
//
//	categories:
//	  Images: [.jpg, .png]
//	  Documents: [.pdf]
//
// The sequence form (- name: Images / extensions: [...]) is accepted as well.
// TOML uses [[categories]] tables.
type Categories []types.Category

// UnmarshalYAML decodes either the mapping or the sequence form, keeping order.
func (c *Categories) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(Categories, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			var name string
			if err := keyNode.Decode(&name); err != nil {
				return fmt.Errorf("line %d: category name: %w", keyNode.Line, err)
			}
			exts, err := decodeExtensions(valueNode)
			if err != nil {
				return fmt.Errorf("line %d: category %q: %w", valueNode.Line, name, err)
			}
			out = append(out, types.Category{Name: name, Extensions: exts})
		}
		*c = out
	case yaml.SequenceNode:
		var list []types.Category
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*c = nil
			return nil
		}
		return fmt.Errorf("line %d: categories must be a mapping or a list", node.Line)
	default:
		return fmt.Errorf("line %d: categories must be a mapping or a list", node.Line)
	}
	return nil
}

func decodeExtensions(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var exts []string
		if err := node.Decode(&exts); err != nil {
			return nil, err
		}
		return exts, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return []string{}, nil
		}
		var ext string
		if err := node.Decode(&ext); err != nil {
			return nil, err
		}
		return []string{ext}, nil
	}
	return nil, fmt.Errorf("extensions must be a list of strings")
}

// MarshalYAML emits the mapping form in category order.
func (c Categories) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, cat := range c {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cat.Name}
		value := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, ext := range cat.Extensions {
			value.Content = append(value.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ext})
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

// MarshalJSON emits a JSON object in category order.
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		exts := cat.Extensions
		if exts == nil {
			exts = []string{}
		}
		list, err := json.Marshal(exts)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Names returns the category names in order.
func (c Categories) Names() []string {
	names := make([]string, len(c))
	for i, cat := range c {
		names[i] = cat.Name
	}
	return names
}

// Find returns the index of the named category or -1.
func (c Categories) Find(name string) int {
	for i, cat := range c {
		if cat.Name == name {
			return i
		}
	}
	return -1
}
