package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/knadh/koanf/parsers/yaml"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

// Format formats data as YAML. Field names follow the json tags, so the
// YAML and JSON outputs carry the same keys.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("yaml output needs an object: %w", err)
	}

	out, err := yaml.Parser().Marshal(m)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
