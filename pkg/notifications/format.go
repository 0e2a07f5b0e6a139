package notifications

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.\-]+)\}`)

// Format replaces {name} tokens in tmpl with values from data. A name may be
// a dotted path into nested maps. Tokens whose key is absent are left as is;
// a present nil value renders as an empty string.
func Format(tmpl string, data map[string]any) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(token string) string {
		v, ok := lookup(data, token[1:len(token)-1])
		if !ok {
			return token
		}
		return render(v, token)
	})
}

func lookup(data map[string]any, name string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if v, ok := data[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}

	var cur any = data
	for part := range strings.SplitSeq(name, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// render stringifies v. A panicking Stringer leaves the token untouched.
func render(v any, token string) (out string) {
	defer func() {
		if recover() != nil {
			out = token
		}
	}()

	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
