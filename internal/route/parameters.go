package route

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/starford/navkit/internal/apperr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parameters is an immutable string-keyed parameter map.
type Parameters struct {
	data map[string]string
}

// NewParameters copies m into a new Parameters value.
func NewParameters(m map[string]string) Parameters {
	if len(m) == 0 {
		return Parameters{}
	}
	data := make(map[string]string, len(m))
	for k, v := range m {
		data[k] = v
	}
	return Parameters{data: data}
}

// ParseQuery parses a "k=v&k2=v2" query string, percent-decoding keys and
// values. Empty segments are skipped; a segment without "=" has an empty
// value; a repeated key keeps its last value.
func ParseQuery(query string) (Parameters, error) {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return Parameters{}, nil
	}
	data := make(map[string]string)
	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(segment, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return Parameters{}, apperr.InvalidParameters(fmt.Sprintf("key %q: %v", rawKey, err))
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Parameters{}, apperr.InvalidParameters(fmt.Sprintf("value for %q: %v", key, err))
		}
		if key == "" {
			continue
		}
		data[key] = value
	}
	return Parameters{data: data}, nil
}

// QueryString serializes the parameters as "k=v&..." with keys sorted.
// Spaces are encoded as %20.
func (p Parameters) QueryString() string {
	keys := p.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, escape(k)+"="+escape(p.data[k]))
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Get returns the value for key.
func (p Parameters) Get(key string) (string, bool) {
	v, ok := p.data[key]
	return v, ok
}

// Value returns the value for key, or def when the key is absent.
func (p Parameters) Value(key, def string) string {
	if v, ok := p.data[key]; ok {
		return v
	}
	return def
}

// Len returns the number of parameters.
func (p Parameters) Len() int {
	return len(p.data)
}

// Keys returns the parameter keys sorted.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns a copy of the underlying map. It is never nil.
func (p Parameters) Data() map[string]string {
	out := make(map[string]string, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}

// With returns a copy of p with key set to value.
func (p Parameters) With(key, value string) Parameters {
	data := p.Data()
	data[key] = value
	return Parameters{data: data}
}

// Equal reports whether both maps hold the same pairs.
func (p Parameters) Equal(o Parameters) bool {
	if len(p.data) != len(o.data) {
		return false
	}
	for k, v := range p.data {
		if ov, ok := o.data[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Decode JSON-decodes the value for key into target. A string target also
// accepts the raw value when it is not a JSON string literal.
func (p Parameters) Decode(key string, target any) error {
	raw, ok := p.data[key]
	if !ok {
		return apperr.ParameterNotFound(key)
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		if s, ok := target.(*string); ok {
			*s = raw
			return nil
		}
		return apperr.ParameterDecodingFailed(key, typeName(target), err)
	}
	return nil
}

func typeName(target any) string {
	t := reflect.TypeOf(target)
	if t == nil {
		return "nil"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Data())
}

func (p *Parameters) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*p = NewParameters(m)
	return nil
}
