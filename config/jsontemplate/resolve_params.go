package jsontemplate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Resolve replaces all `{ "$param": "param_name" }` references in the JSON with
// values from params and returns new JSON data. Param values are always
// provided as strings and then converted to the JSON type of the matching
// field in target, which must be a struct or a pointer to one.
func Resolve(data []byte, target any, params *Params) ([]byte, error) {
	var jsonObj any
	if err := json.Unmarshal(data, &jsonObj); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	typ := indirectType(reflect.TypeOf(target))
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("BUG: Resolve target must be a struct, got %T", target)
	}

	processedObj, err := processNode(jsonObj, params, typ, "")
	if err != nil {
		return nil, fmt.Errorf("parameter resolution failed: %w", err)
	}

	return json.Marshal(processedObj)
}

// processNode traverses the JSON structure, replacing parameter references
func processNode(node any, params *Params, root reflect.Type, path string) (any, error) {
	switch nodeValue := node.(type) {

	// JSON object
	case map[string]any:
		// Check if this is a $param reference node
		if paramName, isParam := nodeValue["$param"]; isParam && len(nodeValue) == 1 {
			paramNameStr, isNameString := paramName.(string)
			if !isNameString {
				return nil, fmt.Errorf("param name must be a string")
			}

			paramValue, exists := params.Get(paramNameStr)
			if !exists {
				return nil, fmt.Errorf("missing parameter %q", paramNameStr)
			}

			fieldType, err := fieldTypeAt(root, path)
			if err != nil {
				return nil, err
			}

			// No functionality to substitute params for repeated fields
			if fieldType.Kind() == reflect.Slice || fieldType.Kind() == reflect.Array {
				return nil, fmt.Errorf("cannot use $param for repeated (array) field %q", path)
			}

			return toJSONType(paramValue, fieldType, path)
		}

		// Regular object (no $param), process each field
		result := make(map[string]any, len(nodeValue))
		for k, v := range nodeValue {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}

			processed, err := processNode(v, params, root, childPath)
			if err != nil {
				return nil, err
			}
			result[k] = processed
		}
		return result, nil

	// JSON array, process each item
	case []any:
		result := make([]any, len(nodeValue))
		for i, item := range nodeValue {
			processed, err := processNode(item, params, root, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			result[i] = processed
		}
		return result, nil

	// Primitive value, done
	default:
		return nodeValue, nil
	}
}

// fieldTypeAt determines the Go type of the field at a given JSON path.
func fieldTypeAt(root reflect.Type, path string) (reflect.Type, error) {
	if path == "" {
		return nil, fmt.Errorf("BUG: empty path for type resolution")
	}

	current := root
	for _, part := range strings.Split(path, ".") {
		// Handle array notation: step into the element type for each index
		name, _, _ := strings.Cut(part, "[")
		current = indirectType(current)
		if current.Kind() != reflect.Struct {
			return nil, fmt.Errorf("cannot traverse non-object field %s in path %s", name, path)
		}

		field, ok := fieldByJSONName(current, name)
		if !ok {
			return nil, fmt.Errorf("field %s not found in path %s", name, path)
		}
		current = indirectType(field.Type)

		for range strings.Count(part, "[") {
			if current.Kind() != reflect.Slice && current.Kind() != reflect.Array {
				return nil, fmt.Errorf("cannot index non-array field %s in path %s", name, path)
			}
			current = indirectType(current.Elem())
		}
	}

	return current, nil
}

// fieldByJSONName finds a struct field the way encoding/json would match it:
// by tag name first, then case-insensitively by field name.
func fieldByJSONName(t reflect.Type, name string) (reflect.StructField, bool) {
	var fallback *reflect.StructField
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tagName, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tagName == "-" {
			continue
		}
		if tagName == name {
			return f, true
		}
		if tagName == "" && fallback == nil && strings.EqualFold(f.Name, name) {
			fallback = &f
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return reflect.StructField{}, false
}

func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// toJSONType converts a string value to the JSON type for a Go kind
func toJSONType(value string, t reflect.Type, path string) (any, error) {
	var (
		converted any
		err       error
	)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		converted, err = strconv.ParseInt(value, 10, t.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		converted, err = strconv.ParseUint(value, 10, t.Bits())
	case reflect.Float32, reflect.Float64:
		converted, err = strconv.ParseFloat(value, t.Bits())
	case reflect.Bool:
		converted, err = strconv.ParseBool(value)
	case reflect.String:
		converted = value
	default:
		return nil, fmt.Errorf("unsupported field type %s for %q", t, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parameter for %q is not a valid %s: %w", path, t.Kind(), err)
	}
	return converted, nil
}
