//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestPickTargetPrefersFirstWanted(t *testing.T) {
	png, jpeg, text := xproto.Atom(301), xproto.Atom(302), xproto.Atom(400)
	reply := atomsToBytes([]xproto.Atom{text, jpeg, png})

	got, err := pickTarget(reply, []xproto.Atom{png, jpeg})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got != png {
		t.Fatalf("expected png target %d, got %d", png, got)
	}

	got, err = pickTarget(atomsToBytes([]xproto.Atom{text, jpeg}), []xproto.Atom{png, jpeg})
	if err != nil || got != jpeg {
		t.Fatalf("expected jpeg fallback, got %d (%v)", got, err)
	}
}

func TestPickTargetWithoutImages(t *testing.T) {
	if _, err := pickTarget(atomsToBytes([]xproto.Atom{400}), []xproto.Atom{301}); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	// A truncated reply only contributes whole atoms.
	if _, err := pickTarget([]byte{1, 2, 3}, []xproto.Atom{301}); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage for a short reply, got %v", err)
	}
}
