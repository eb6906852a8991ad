package css_test

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"vdomkit/css"
)

func TestSanitizeStylesheet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string // expected substrings
		notWant []string // forbidden substrings
	}{
		{
			name:    "import removed",
			input:   `@import url(x.css); .a{color:red}`,
			want:    []string{".wrap1 { .a{color:red} }"},
			notWant: []string{"@import", "x.css"},
		},
		{
			name:    "id scoped",
			input:   `#foo{color:blue}`,
			want:    []string{`#blk1\:\:foo{color:blue}`},
			notWant: []string{"#foo{"},
		},
		{
			name:    "root rule removed",
			input:   `:root{--x:1}`,
			want:    []string{".wrap1 {"},
			notWant: []string{"--x", "root"},
		},
		{
			name:    "root removed from selector list",
			input:   `:root, .a{color:red}`,
			want:    []string{".a{color:red}"},
			notWant: []string{"root"},
		},
		{
			name:  "nested root is kept",
			input: `:not(:root) .a{color:red}`,
			want:  []string{":not(:root) .a{color:red}"},
		},
		{
			name:  "mask fragment scoped",
			input: `.a{mask:url(#shape)}`,
			want:  []string{"mask:url(#blk1::shape)"},
		},
		{
			name:  "filter fragment scoped",
			input: `.a{filter:url(#blur)}`,
			want:  []string{"filter:url(#blk1::blur)"},
		},
		{
			name:    "fragment outside filter and mask untouched",
			input:   `.a{background:url(#shape)}`,
			want:    []string{"background:url(#shape)"},
			notWant: []string{"blk1::shape"},
		},
		{
			name:  "block relative url scoped",
			input: `.a{background:url(vdom:///img.png)}`,
			want:  []string{"background:url(vdom://blk1/img.png)"},
		},
		{
			name:  "quoted block relative url scoped",
			input: `.a{background:url("vdom:///img.png")}`,
			want:  []string{`background:url("vdom://blk1/img.png")`},
		},
		{
			name:    "explicit host removes declaration",
			input:   `.a{background:url(vdom://other/img.png);color:red}`,
			want:    []string{".a{color:red}"},
			notWant: []string{"vdom://other", "background"},
		},
		{
			name:    "blocked at-rules removed",
			input:   `@font-face{font-family:x;src:url(a.woff)} @keyframes spin{from{opacity:0}to{opacity:1}} @supports (display:grid){.g{display:grid}} .a{color:red}`,
			want:    []string{".a{color:red}"},
			notWant: []string{"font-face", "keyframes", "supports", "a.woff", "display:grid"},
		},
		{
			name:    "vendor prefixed keyframes removed",
			input:   `@-webkit-keyframes spin{from{opacity:0}} .a{color:red}`,
			want:    []string{".a{color:red}"},
			notWant: []string{"keyframes"},
		},
		{
			name:  "media kept and walked",
			input: `@media screen{#foo{color:red}}`,
			want:  []string{`@media screen{#blk1\:\:foo{color:red}}`},
		},
		{
			name:  "custom property url scoped",
			input: `.a{--bg:url(vdom:///x.png)}`,
			want:  []string{"--bg:url(vdom://blk1/x.png)"},
		},
		{
			name:  "string outside url function untouched",
			input: `.a{content:"vdom:///x"}`,
			want:  []string{`content:"vdom:///x"`},
		},
		{
			name:  "foreign block string outside url function kept",
			input: `.a{content:"vdom://evil/"}`,
			want:  []string{`.a{content:"vdom://evil/"}`},
		},
		{
			name:  "image-set strings scoped",
			input: `.a{background-image:image-set("vdom:///a.png" 1x, "vdom:///b.png" 2x)}`,
			want:  []string{`"vdom://blk1/a.png" 1x`, `"vdom://blk1/b.png" 2x`},
		},
		{
			name:    "image-set foreign block removes declaration",
			input:   `.a{background-image:image-set("vdom://other/a.png" 1x);color:red}`,
			want:    []string{".a{color:red}"},
			notWant: []string{"other"},
		},
		{
			name:  "nested id rule scoped",
			input: `.a{color:red; #b{color:blue}}`,
			want:  []string{`.a{color:red;#blk1\:\:b{color:blue}}`},
		},
		{
			name:  "multiple declarations",
			input: ".a {\n  color: red;\n  margin: 0  auto;\n}\n",
			want:  []string{".a{color:red;margin:0 auto}"},
		},
	}

	s := css.NewSanitizer(zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.SanitizeStylesheet("blk1", tt.input, "wrap1")
			if err != nil {
				t.Fatalf("SanitizeStylesheet() error = %v", err)
			}
			if !strings.HasPrefix(out, ".wrap1 { ") || !strings.HasSuffix(out, " }") {
				t.Errorf("output is not wrapped: %q", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q does not contain %q", out, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output %q contains %q", out, nw)
				}
			}
		})
	}
}

func TestSanitizeStylesheet_ParseError(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	for _, input := range []string{"}", ".a"} {
		out, err := s.SanitizeStylesheet("blk1", input, "wrap1")
		if err == nil {
			t.Fatalf("expected error for %q, got output %q", input, out)
		}
		var cerr *css.Error
		if !errors.As(err, &cerr) {
			t.Fatalf("expected *css.Error, got %T", err)
		}
		if cerr.Kind != css.FailureKindParse {
			t.Errorf("Kind = %s, want %s", cerr.Kind, css.FailureKindParse)
		}
		if out != "" {
			t.Errorf("expected empty output on error, got %q", out)
		}
	}
}

func TestSanitizeStylesheet_DoubleScoping(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	out, err := s.SanitizeStylesheet("blk1", `#blk1\:\:foo{color:blue}`, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheet() error = %v", err)
	}
	// already scoped ids are scoped again
	if !strings.Contains(out, `#blk1\:\:blk1\:\:foo`) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSanitizeStylesheet_NamespacesDoNotCollide(t *testing.T) {
	s := css.NewSanitizer(nil)

	a, err := s.SanitizeStylesheet("blk1", `#foo{color:blue}`, "wrap")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.SanitizeStylesheet("blk2", `#foo{color:blue}`, "wrap")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("different blocks produced identical output %q", a)
	}
}

func TestSanitizeStylesheet_Options(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t),
		css.WithBlockedAtRules("@media"),
		css.WithFragmentProperties("clip-path"),
	)

	out, err := s.SanitizeStylesheet("blk1",
		`@import url(x.css); @media print{.a{color:red}} .b{clip-path:url(#c);mask:url(#m)}`, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheet() error = %v", err)
	}
	if strings.Contains(out, "@media") {
		t.Errorf("@media should be removed: %q", out)
	}
	if !strings.Contains(out, "@import") {
		t.Errorf("@import should be kept when not blocked: %q", out)
	}
	if !strings.Contains(out, "clip-path:url(#blk1::c)") || !strings.Contains(out, "mask:url(#m)") {
		t.Errorf("unexpected fragment processing: %q", out)
	}
}

func TestSanitizeStylesheet_Concurrent(t *testing.T) {
	s := css.NewSanitizer(nil)

	var wg sync.WaitGroup
	for _, ns := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.SanitizeStylesheet(ns, `#x{background:url(vdom:///i.png)}`, "w")
			if err != nil {
				t.Errorf("SanitizeStylesheet(%s) error = %v", ns, err)
				return
			}
			if !strings.Contains(out, "vdom://"+ns+"/i.png") {
				t.Errorf("SanitizeStylesheet(%s) = %q", ns, out)
			}
		}()
	}
	wg.Wait()
}

func TestSanitizeStylesheet_Resanitize(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	once, err := s.SanitizeStylesheet("blk1", `#foo{color:blue} .b{background:url(vdom:///i.png)} .c{color:red}`, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheet() error = %v", err)
	}
	twice, err := s.SanitizeStylesheet("blk1", once, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheet() of sanitized output error = %v", err)
	}
	for _, w := range []string{`.wrap1 { .wrap1{#blk1\:\:blk1\:\:foo{color:blue}`, `.c{color:red}}`} {
		if !strings.Contains(twice, w) {
			t.Errorf("output %q does not contain %q", twice, w)
		}
	}
	// explicit host of the first pass is not accepted again
	if strings.Contains(twice, "vdom://") {
		t.Errorf("output %q references block resource", twice)
	}
	if _, err := s.SanitizeStylesheet("blk1", twice, "wrap1"); err != nil {
		t.Errorf("SanitizeStylesheet() of nested output error = %v", err)
	}
}

func TestSanitizeStylesheet_ImportString(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t), css.WithBlockedAtRules())

	out, err := s.SanitizeStylesheet("blk1", `@import "vdom:///a.css"; @import "vdom://other/b.css"; .a{color:red}`, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheet() error = %v", err)
	}
	if !strings.Contains(out, `"vdom://blk1/a.css"`) {
		t.Errorf("import not scoped: %q", out)
	}
	if strings.Contains(out, "other") {
		t.Errorf("foreign import kept: %q", out)
	}
}

type panickingWriter struct{}

func (panickingWriter) Write([]byte) (int, error) {
	panic("writer is broken")
}

func TestSanitizeStylesheetTo(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	var sb strings.Builder
	n, err := s.SanitizeStylesheetTo(&sb, "blk1", `#foo{color:blue}`, "wrap1")
	if err != nil {
		t.Fatalf("SanitizeStylesheetTo() error = %v", err)
	}
	want, _ := s.SanitizeStylesheet("blk1", `#foo{color:blue}`, "wrap1")
	if sb.String() != want || n != int64(len(want)) {
		t.Errorf("SanitizeStylesheetTo() = %d, %q, want %q", n, sb.String(), want)
	}
}

func TestSanitizeStylesheetTo_ProcessingError(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	for name, w := range map[string]io.Writer{
		"write error": failingWriter{},
		"panic":       panickingWriter{},
	} {
		t.Run(name, func(t *testing.T) {
			n, err := s.SanitizeStylesheetTo(w, "blk1", `.a{color:red}`, "wrap1")
			var cerr *css.Error
			if !errors.As(err, &cerr) || cerr.Kind != css.FailureKindProcessing {
				t.Fatalf("expected processing error, got %v", err)
			}
			if n != 0 {
				t.Errorf("expected empty output, %d bytes written", n)
			}
		})
	}

	// parse failures keep their kind and produce no output either
	var sb strings.Builder
	_, err := s.SanitizeStylesheetTo(&sb, "blk1", `}`, "wrap1")
	var cerr *css.Error
	if !errors.As(err, &cerr) || cerr.Kind != css.FailureKindParse {
		t.Errorf("expected parse error, got %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("expected empty output, got %q", sb.String())
	}
}
