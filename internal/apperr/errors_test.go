package apperr

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestWrap_KeepsKindAndCause(t *testing.T) {
	err := Wrap(ErrFilesystem, "read note", "notes/a.md", fs.ErrNotExist)
	if !errors.Is(err, ErrFilesystem) {
		t.Error("kind not reachable")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause not reachable")
	}
	if !strings.Contains(err.Error(), "read note notes/a.md") {
		t.Errorf("error = %q, want op and path", err)
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(ErrSerialization, "encode", "", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}
