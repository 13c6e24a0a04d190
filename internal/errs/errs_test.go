package errs

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestWrapPreservesChain(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Fatalf("Wrap(nil) should return nil")
	}

	err := Wrapf(Wrap(io.EOF, "read entry"), "load guide %s", "123A_20240101_090000")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("errors.Is(io.EOF) = false for %v", err)
	}
	if err.Error() != "load guide 123A_20240101_090000: read entry: EOF" {
		t.Fatalf("Error() = %q", err.Error())
	}

	chain := ErrorChainStrings(err)
	if len(chain) != 3 || chain[2] != "EOF" {
		t.Fatalf("ErrorChainStrings() = %#v", chain)
	}
}

func TestErrorChainStringsJoined(t *testing.T) {
	err := errors.Join(io.EOF, io.ErrUnexpectedEOF)
	chain := ErrorChainStrings(err)
	if len(chain) != 3 {
		t.Fatalf("ErrorChainStrings() = %#v", chain)
	}
}

func TestLoggable(t *testing.T) {
	value := Loggable(Wrap(io.EOF, "scan")).LogValue()
	if value.Kind() != slog.KindGroup {
		t.Fatalf("LogValue().Kind() = %v", value.Kind())
	}
	attrs := value.Group()
	if len(attrs) != 2 || attrs[0].Value.String() != "scan: EOF" {
		t.Fatalf("LogValue() attrs = %#v", attrs)
	}

	if got := Loggable(nil).LogValue().Group(); len(got) != 0 {
		t.Fatalf("Loggable(nil) attrs = %#v", got)
	}
}
