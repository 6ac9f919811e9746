package route

import (
	"errors"
	"testing"

	"github.com/starford/navkit/internal/apperr"
)

func TestParseQuery_PercentDecoding(t *testing.T) {
	p, err := ParseQuery("userId=123&name=John%20Doe")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if v, _ := p.Get("userId"); v != "123" {
		t.Errorf("userId = %q", v)
	}
	if v, _ := p.Get("name"); v != "John Doe" {
		t.Errorf("name = %q, want %q", v, "John Doe")
	}
}

func TestQueryString_RoundTrip(t *testing.T) {
	original := NewParameters(map[string]string{
		"userId": "123",
		"name":   "John Doe",
		"q":      "a&b=c",
		"plus":   "1+1",
		"empty":  "",
	})
	reparsed, err := ParseQuery(original.QueryString())
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if !reparsed.Equal(original) {
		t.Errorf("round trip mismatch: %v vs %v", reparsed.Data(), original.Data())
	}
}

func TestQueryString_SortedAndSpaceEncoding(t *testing.T) {
	p := NewParameters(map[string]string{"b": "x y", "a": "1"})
	if got := p.QueryString(); got != "a=1&b=x%20y" {
		t.Errorf("QueryString = %q", got)
	}
}

func TestParseQuery_Edges(t *testing.T) {
	p, err := ParseQuery("?a=1&&flag&a=2")
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if v, _ := p.Get("a"); v != "2" {
		t.Errorf("a = %q, want last value", v)
	}
	if v, ok := p.Get("flag"); !ok || v != "" {
		t.Errorf("flag = %q, %v", v, ok)
	}
	if _, err := ParseQuery("a=%zz"); !errors.Is(err, apperr.ErrInvalidParameters) {
		t.Errorf("bad escape err = %v", err)
	}
}

func TestParameters_Immutable(t *testing.T) {
	src := map[string]string{"k": "v"}
	p := NewParameters(src)
	src["k"] = "changed"
	p.Data()["k"] = "changed"
	if v, _ := p.Get("k"); v != "v" {
		t.Errorf("parameters mutated through copy: %q", v)
	}
	q := p.With("k", "w")
	if v, _ := p.Get("k"); v != "v" {
		t.Error("With must not mutate receiver")
	}
	if v, _ := q.Get("k"); v != "w" {
		t.Errorf("With value = %q", v)
	}
	if p.Value("missing", "fallback") != "fallback" {
		t.Error("Value default not applied")
	}
}

func TestParameters_Decode(t *testing.T) {
	p := NewParameters(map[string]string{
		"id":    "42",
		"name":  "John",
		"tags":  `["a","b"]`,
		"bad":   "not-a-number",
		"quote": `"quoted"`,
	})

	var id int
	if err := p.Decode("id", &id); err != nil || id != 42 {
		t.Errorf("id = %d, err = %v", id, err)
	}
	var name string
	if err := p.Decode("name", &name); err != nil || name != "John" {
		t.Errorf("name = %q, err = %v", name, err)
	}
	var quote string
	if err := p.Decode("quote", &quote); err != nil || quote != "quoted" {
		t.Errorf("quote = %q, err = %v", quote, err)
	}
	var tags []string
	if err := p.Decode("tags", &tags); err != nil || len(tags) != 2 {
		t.Errorf("tags = %v, err = %v", tags, err)
	}

	var n int
	err := p.Decode("bad", &n)
	if !errors.Is(err, apperr.ErrParameterDecodingFailed) {
		t.Fatalf("bad decode err = %v", err)
	}
	var e *apperr.Error
	if errors.As(err, &e) && e.Expected != "int" {
		t.Errorf("expected type = %q", e.Expected)
	}
	if err := p.Decode("missing", &n); !errors.Is(err, apperr.ErrParameterNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestParameters_JSON(t *testing.T) {
	p := NewParameters(map[string]string{"userId": "42"})
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"userId":"42"}` {
		t.Errorf("json = %s", b)
	}
	var empty Parameters
	b, _ = json.Marshal(empty)
	if string(b) != `{}` {
		t.Errorf("empty json = %s", b)
	}
	var back Parameters
	if err := json.Unmarshal([]byte(`{"a":"b"}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, _ := back.Get("a"); v != "b" {
		t.Errorf("a = %q", v)
	}
}

func TestNavigationType_Text(t *testing.T) {
	for _, nt := range AllTypes {
		b, err := nt.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", nt, err)
		}
		var back NavigationType
		if err := back.UnmarshalText(b); err != nil || back != nt {
			t.Errorf("round trip %s -> %v (%v)", b, back, err)
		}
	}
	if FullScreen.String() != "fullScreen" {
		t.Errorf("FullScreen = %q", FullScreen)
	}
	var nt NavigationType
	if err := nt.UnmarshalText([]byte("slide")); !errors.Is(err, apperr.ErrInvalidNavigationType) {
		t.Errorf("err = %v", err)
	}
	if _, err := NavigationType(0).MarshalText(); err == nil {
		t.Error("zero type must not marshal")
	}
}

func TestNavigationType_IsModal(t *testing.T) {
	modal := map[NavigationType]bool{Sheet: true, FullScreen: true, Modal: true}
	for _, nt := range AllTypes {
		if nt.IsModal() != modal[nt] {
			t.Errorf("%s.IsModal() = %v", nt, nt.IsModal())
		}
	}
}

func TestTable_Validation(t *testing.T) {
	tbl, err := NewTable(MustKey("home", Push), MustKey("settings", Sheet))
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := tbl.Add(MustKey("home", Push)); err != nil {
		t.Errorf("identical re-add should be a no-op: %v", err)
	}
	if err := tbl.Add(Key{Name: "home", Presentation: Sheet}); !errors.Is(err, apperr.ErrInvalidRouteKey) {
		t.Errorf("mismatched presentation err = %v", err)
	}
	if err := tbl.Add(Key{Name: " ", Presentation: Push}); !errors.Is(err, apperr.ErrInvalidRouteKey) {
		t.Errorf("blank name err = %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
	keys := tbl.Keys()
	if keys[0].Name != "home" || keys[1].Name != "settings" {
		t.Errorf("Keys not sorted: %v", keys)
	}
	if k, ok := tbl.Lookup("settings"); !ok || k.Presentation != Sheet {
		t.Errorf("Lookup = %v, %v", k, ok)
	}
}

func TestFactories(t *testing.T) {
	ctx := Context{Key: MustKey("profile", Push), Parameters: NewParameters(map[string]string{"userId": "42"})}

	decl := DescriptorFactory(Declarative, "Profile")
	c, err := decl.Build(ctx)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Backend != Declarative || decl.Backend() != Declarative {
		t.Errorf("backend = %v", c.Backend)
	}
	d := c.View.(Descriptor)
	if d.Route != "profile" || d.Parameters["userId"] != "42" {
		t.Errorf("descriptor = %+v", d)
	}

	imp := DescriptorFactory(Imperative, "")
	if imp.Backend() != Imperative {
		t.Errorf("imperative backend = %v", imp.Backend())
	}

	failing := ImperativeFunc(func(Context) (any, error) { return nil, errors.New("boom") })
	if _, err := failing.Build(ctx); err == nil {
		t.Error("factory error should propagate")
	}
}

func TestParseURL(t *testing.T) {
	link, err := ParseURL("navkit://deeplink_product?id=42&navigationType=sheet&tab=shop&note=a%20b")
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if link.Route != "deeplink_product" {
		t.Errorf("route = %q", link.Route)
	}
	if link.NavigationType != Sheet || link.TabID != "shop" {
		t.Errorf("type = %v, tab = %q", link.NavigationType, link.TabID)
	}
	if link.Parameters.Len() != 2 || link.Parameters.Value("note", "") != "a b" {
		t.Errorf("params = %v", link.Parameters.Data())
	}

	if _, err := ParseURL("navkit://"); !errors.Is(err, apperr.ErrInvalidRouteKey) {
		t.Errorf("empty route err = %v", err)
	}
	if _, err := ParseURL("navkit://home?navigationType=slide"); !errors.Is(err, apperr.ErrInvalidNavigationType) {
		t.Errorf("bad type err = %v", err)
	}
}
