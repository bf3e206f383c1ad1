package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

func TestExecute_ClosesTheApp(t *testing.T) {
	file := filepath.Join(t.TempDir(), "habits.json")

	t.Run("After a failing command", func(t *testing.T) {
		root, rt := newRootCommand(io.Discard)
		root.SetArgs([]string{"remove", "Ghost", "--config=", "--file=" + file})

		err := execute(context.Background(), root, rt)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
		assert.Nil(t, rt.app)
	})

	t.Run("After a successful command", func(t *testing.T) {
		root, rt := newRootCommand(io.Discard)
		root.SetArgs([]string{"list", "--config=", "--file=" + file})

		require.NoError(t, execute(context.Background(), root, rt))
		assert.Nil(t, rt.app)
	})
}
