package builder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/synergy/internal/models"
)

// championDescription renders every field of a champion as "key: value" pairs in document
// order, nested objects flattened the same way without braces.
func championDescription(e rawEntity) string {
	return renderFields(e.Fields)
}

// itemDescription joins the text of every spell of an item in document order.
func itemDescription(e rawEntity) string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if s := renderValue(f.value); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// attributesOf extracts the typed attributes of e. A champion must carry an integer cost.
func attributesOf(category models.Category, e rawEntity) (models.Attributes, error) {
	v, ok := e.lookup("cost")
	if !ok {
		if category == models.CategoryChampions {
			return models.Attributes{}, fmt.Errorf("entity %q has no cost", e.Name)
		}
		return models.Attributes{}, nil
	}
	cost, err := parseCost(v)
	if err != nil {
		return models.Attributes{}, fmt.Errorf("entity %q: %w", e.Name, err)
	}
	return models.Attributes{Cost: cost, HasCost: true}, nil
}

func parseCost(v any) (int, error) {
	switch c := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(c.String())
		if err != nil {
			return 0, fmt.Errorf("cost %s is not an integer", c)
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return 0, fmt.Errorf("cost %q is not an integer", c)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cost has unexpected type %T", v)
	}
}

func renderFields(fields []field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.key + ": " + renderValue(f.value)
	}
	return strings.Join(parts, ", ")
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "True"
		}
		return "False"
	case []field:
		return renderFields(x)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
