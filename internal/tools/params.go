package tools

import (
	"fmt"
	"strconv"

	"github.com/elidunn/devicecore-mcp/internal/platform"
)

// GetStringParam safely gets a string parameter from arguments.
func GetStringParam(arguments map[string]interface{}, key string, required bool) (string, error) {
	val, ok := arguments[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required argument: %s", key)
		}
		return "", nil
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("invalid type for argument %s: expected string, got %T", key, val)
	}
}

// GetObjectParam safely gets a map/object parameter from arguments.
func GetObjectParam(arguments map[string]interface{}, key string, required bool) (map[string]interface{}, error) {
	val, ok := arguments[key]
	if !ok {
		if required {
			return nil, fmt.Errorf("missing required argument: %s", key)
		}
		return nil, nil
	}
	obj, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid type for argument %s: expected object", key)
	}
	return obj, nil
}

// GetIntParam safely gets an integer parameter from arguments.
func GetIntParam(arguments map[string]interface{}, key string, required bool) (int, error) {
	val, ok := arguments[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing required argument: %s", key)
		}
		return 0, nil
	}
	switch v := val.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("invalid type for argument %s: expected number, got %T", key, val)
	}
}

// GetBoolParam safely gets a boolean parameter from arguments.
func GetBoolParam(arguments map[string]interface{}, key string, required bool) (bool, error) {
	val, ok := arguments[key]
	if !ok {
		if required {
			return false, fmt.Errorf("missing required argument: %s", key)
		}
		return false, nil
	}
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("invalid type for argument %s: expected boolean, got %T", key, val)
	}
}

// GetOptionalBoolParam parses a tri-state boolean argument (absent means
// "don't filter"), returning nil when the key is not present.
func GetOptionalBoolParam(arguments map[string]interface{}, key string) (*bool, error) {
	if _, ok := arguments[key]; !ok {
		return nil, nil
	}
	v, err := GetBoolParam(arguments, key, true)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetStringArrayParam safely gets a string array parameter from arguments.
func GetStringArrayParam(arguments map[string]interface{}, key string, required bool) ([]string, error) {
	val, ok := arguments[key]
	if !ok {
		if required {
			return nil, fmt.Errorf("missing required argument: %s", key)
		}
		return nil, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid type for argument %s: expected array", key)
	}
	out := make([]string, 0, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("invalid type for element %d of argument %s: expected string", i, key)
		}
		out = append(out, s)
	}
	return out, nil
}

// GetCapabilityArrayParam parses a string-array argument into Capability
// values.
func GetCapabilityArrayParam(arguments map[string]interface{}, key string) ([]platform.Capability, error) {
	raw, err := GetStringArrayParam(arguments, key, false)
	if err != nil || raw == nil {
		return nil, err
	}
	out := make([]platform.Capability, 0, len(raw))
	for _, s := range raw {
		out = append(out, platform.Capability(s))
	}
	return out, nil
}
