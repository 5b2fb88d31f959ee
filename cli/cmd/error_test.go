package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"testing"
)

func TestError(t *testing.T) {
	err := ErrWriteFile.With(slog.String("file", "/x")).Wrap(fs.ErrPermission)

	if got, want := err.Error(), "write file: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, ErrWriteFile) {
		t.Error("not identified as its sentinel")
	}

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("cause not unwrapped")
	}

	if errors.Is(err, ErrWriteConfig) {
		t.Error("matched an unrelated sentinel")
	}

	v := err.LogValue()
	if v.Kind() != slog.KindGroup || len(v.Group()) != 3 {
		t.Errorf("LogValue = %v", v)
	}

	if len(ErrWriteFile.attrs) != 0 {
		t.Error("With modified the sentinel")
	}
}

func TestError_Nested(t *testing.T) {
	err := ErrWriteConfig.Wrap(ErrWriteFile.Wrap(ErrFileExists))

	for _, target := range []error{ErrWriteConfig, ErrWriteFile, ErrFileExists} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(%v, %v) = false", err, target)
		}
	}

	if NewError("").Error() != "" {
		t.Error("empty error has text")
	}
}
