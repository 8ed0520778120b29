package announce

import (
	"bytes"
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// UpdateMetadata writes the announcement into a game's metadata.yaml
// under the announcement_message key. The document is edited through its
// node tree so key order and comments survive the rewrite.
func UpdateMetadata(path, announcement string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("metadata %s is not a mapping", path)
	}
	setMappingValue(doc.Content[0], "announcement_message", announcement)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// setMappingValue replaces the value of key in a mapping node, or
// appends the pair when the key is absent.
func setMappingValue(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = scalarNode(value)
			return
		}
	}
	m.Content = append(m.Content, scalarNode(key), scalarNode(value))
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
