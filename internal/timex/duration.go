// Package timex holds time helpers shared by the config loaders.
package timex

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can spell durations either as
// Go duration strings ("15m", "168h") or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func parse(v any) (time.Duration, error) {
	switch x := v.(type) {
	case string:
		return time.ParseDuration(x)
	case float64:
		return time.Duration(x), nil
	case int:
		return time.Duration(x), nil
	default:
		return 0, fmt.Errorf("invalid duration %v", v)
	}
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := parse(v)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := parse(v)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
