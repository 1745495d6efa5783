package cmderr

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/nspcc-dev/oxfs/pkg/romfs/common"
	"github.com/nspcc-dev/oxfs/pkg/romfs/util/logicerr"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{errors.New("any"), CodeInternal},
		{fmt.Errorf("read: %w", common.ErrNotFound), CodeNotFound},
		{fmt.Errorf("write: %w", common.ErrNoSpace), CodeNoSpace},
		{common.ErrCorrupted, CodeCorrupt},
		{common.ErrOutOfBounds, CodeCorrupt},
		{logicerr.Wrap(common.ErrNotDirectory), CodeInvalid},
		{ExitErr{Code: 42, Cause: common.ErrNotFound}, 42},
	} {
		require.Equal(t, tc.code, Code(tc.err), tc.err)
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer

	require.Zero(t, Fprint(&buf, nil))
	require.Zero(t, buf.Len())

	require.Equal(t, CodeNotFound, Fprint(&buf, fmt.Errorf("stat /x: %w", common.ErrNotFound)))
	require.Equal(t, "Error: stat /x: "+common.ErrNotFound.Error()+"\n", buf.String())
}
