package store

import "testing"

func TestFilterString(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want string
	}{
		{"zero", Filter{}, ""},
		{"eq", Eq("hostname", "1dun.co"), `hostname = "1dun.co"`},
		{
			"production domain filter",
			And(Eq("hostname", "1dun.co"), Or(Eq("status", "active"), Eq("status", "verified"))),
			`hostname = "1dun.co" && (status = "active" || status = "verified")`,
		},
		{"single term group collapses", And(Eq("site", "abc")), `site = "abc"`},
		{"empty terms dropped", And(Filter{}, Eq("a", "b"), Or()), `a = "b"`},
		{"html kept literal", Eq("title", "<b>&"), `title = "<b>&"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.String(); got != tc.want {
				t.Fatalf("got  %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestFilterEscapesInjection(t *testing.T) {
	hostile := `evil.com" || hostname != "`
	got := Eq("hostname", hostile).String()
	want := `hostname = "evil.com\" || hostname != \""`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	got = Eq("hostname", `a\" b`).String()
	want = `hostname = "a\\\" b"`
	if got != want {
		t.Fatalf("backslash: got %s, want %s", got, want)
	}
}

func TestFilterAccessors(t *testing.T) {
	f := And(Eq("a", "1"), Eq("b", "2"))
	if f.Op() != OpAnd || len(f.Terms()) != 2 {
		t.Fatalf("unexpected node: op=%v terms=%d", f.Op(), len(f.Terms()))
	}
	if t0 := f.Terms()[0]; t0.Field() != "a" || t0.Value() != "1" {
		t.Fatalf("unexpected term: %s", t0)
	}
}
