package errs_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/gyaneshwarpardhi/plantboard/internal/errs"
)

var errRoot = errors.New("root cause")

func TestWrapNil(t *testing.T) {
	if errs.Wrap(nil, "ctx") != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	if errs.Wrapf(nil, "ctx %d", 1) != nil {
		t.Fatal("Wrapf(nil) should be nil")
	}
	if errs.WithStack(nil) != nil {
		t.Fatal("WithStack(nil) should be nil")
	}
}

func TestWrapChain(t *testing.T) {
	err := errs.Wrapf(errs.Wrap(errRoot, "load"), "file %s", "a.csv")
	if !errors.Is(err, errRoot) {
		t.Fatalf("errors.Is lost the root: %v", err)
	}
	if got, want := err.Error(), "file a.csv: load: root cause"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	chain := errs.ErrorChainStrings(err)
	if len(chain) != 3 || chain[2] != "root cause" {
		t.Fatalf("chain = %v", chain)
	}
}

func TestWithStackOnce(t *testing.T) {
	first := errs.WithStack(errRoot)
	second := errs.WithStack(errs.Wrap(first, "outer"))
	var se *errs.StackError
	if !errors.As(second, &se) {
		t.Fatal("expected StackError in chain")
	}
	if se != first {
		t.Fatal("stack captured twice")
	}
	if len(se.Stack()) == 0 {
		t.Fatal("empty stack")
	}
}

func TestLoggable(t *testing.T) {
	v := errs.Loggable(errs.Wrap(errRoot, "ctx")).LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("kind = %v", v.Kind())
	}
	attrs := v.Group()
	if len(attrs) != 2 || attrs[0].Key != "message" {
		t.Fatalf("attrs = %v", attrs)
	}
	if empty := errs.Loggable(nil).LogValue(); len(empty.Group()) != 0 {
		t.Fatal("nil error should log as empty group")
	}
}
