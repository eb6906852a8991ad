package css_test

import (
	"reflect"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"vdomkit/css"
)

func TestSanitizeStyleMap(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	style := map[string]any{
		"color":      "red",
		"icon":       "vdom:///i.png",
		"background": "url(vdom:///bg.png) no-repeat",
		"mask":       "url(#shape)",
		"width":      10,
		"margin":     "",
		"padding":    nil,
	}
	got, err := s.SanitizeStyleMap("blk1", style)
	if err != nil {
		t.Fatalf("SanitizeStyleMap() error = %v", err)
	}

	want := map[string]any{
		"color":      "red",
		"icon":       "vdom://blk1/i.png",
		"background": "url(vdom://blk1/bg.png) no-repeat",
		"mask":       "url(#blk1::shape)",
		"width":      10,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeStyleMap() = %v, want %v", got, want)
	}
	// original is not modified
	if style["icon"] != "vdom:///i.png" {
		t.Errorf("input map was modified: %v", style)
	}
}

func TestSanitizeStyleMap_Unchanged(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	style := map[string]any{
		"color":      "red",
		"background": "url(img.png)",
		"width":      10,
		"margin":     "",
	}
	got, err := s.SanitizeStyleMap("blk1", style)
	if err != nil {
		t.Fatalf("SanitizeStyleMap() error = %v", err)
	}
	if reflect.ValueOf(got).Pointer() != reflect.ValueOf(style).Pointer() {
		t.Error("expected the very same map when nothing needs scoping")
	}
	if len(got) != 4 {
		t.Errorf("unexpected map %v", got)
	}
}

func TestSanitizeStyleMap_FragmentOnlyForFilterAndMask(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	got, err := s.SanitizeStyleMap("blk1", map[string]any{
		"filter":     "url(#blur) grayscale(50%)",
		"background": "url(#pattern)",
	})
	if err != nil {
		t.Fatalf("SanitizeStyleMap() error = %v", err)
	}
	if got["filter"] != "url(#blk1::blur) grayscale(50%)" {
		t.Errorf("filter = %v", got["filter"])
	}
	if got["background"] != "url(#pattern)" {
		t.Errorf("background = %v", got["background"])
	}
}

func TestSanitizeStyleMap_ExplicitHostDropped(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	got, err := s.SanitizeStyleMap("blk1", map[string]any{
		"color":      "red",
		"background": "url(vdom://other/bg.png)",
		"icon":       "vdom://other/i.png",
	})
	if err != nil {
		t.Fatalf("SanitizeStyleMap() error = %v", err)
	}
	if len(got) != 1 || got["color"] != "red" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestSanitizeStyleMap_BadValueKept(t *testing.T) {
	s := css.NewSanitizer(zaptest.NewLogger(t))

	bad := "url(vdom:///a.png) \"bad\nstring\""
	got, err := s.SanitizeStyleMap("blk1", map[string]any{
		"background": bad,
		"icon":       "url(vdom:///i.png)",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := len(multierr.Errors(err)); n != 1 {
		t.Errorf("expected 1 error, got %d: %v", n, err)
	}
	if got["background"] != bad {
		t.Errorf("bad value should be kept as is, got %v", got["background"])
	}
	if got["icon"] != "url(vdom://blk1/i.png)" {
		t.Errorf("processing should continue after error, icon = %v", got["icon"])
	}
}
