//go:build unit

package entities_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

func TestSanitizeDirectoryName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "should keep a plain name", input: "notes", expected: "notes"},
		{name: "should collapse whitespace runs", input: "my   deploy  script", expected: "my_deploy_script"},
		{name: "should drop forbidden characters", input: `a<b>c:d"e/f\g|h?i*j`, expected: "abcdefghij"},
		{name: "should collapse separator runs", input: "v1.0 - final__draft", expected: "v1_0_final_draft"},
		{name: "should drop control characters", input: "tab\there\nnewline", expected: "tabherenewline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			result := entities.SanitizeDirectoryName(tt.input)

			// then
			assert.Equal(t, tt.expected, result)
		})
	}

	t.Run("should truncate long names", func(t *testing.T) {
		t.Parallel()

		// given
		long := strings.Repeat("x", 400)

		// when
		result := entities.SanitizeDirectoryName(long)

		// then
		assert.Len(t, result, 150)
	})
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	t.Run("should derive the directory from title and id", func(t *testing.T) {
		t.Parallel()

		// when
		source := entities.NewSource("kx9a", "Deploy Script", "team")

		// then
		assert.Equal(t, "Deploy_Script_kx9a", source.DirName)
		assert.Equal(t, "team", source.Workspace)
	})

	t.Run("should name untitled sources after their id", func(t *testing.T) {
		t.Parallel()

		// when
		source := entities.NewSource("kx9a", "", "team")

		// then
		assert.Equal(t, "Untitled_Snippet_kx9a", source.Title)
		assert.Equal(t, "Untitled_Snippet_kx9a_kx9a", source.DirName)
	})

	t.Run("should give equal titles distinct directories", func(t *testing.T) {
		t.Parallel()

		// when
		first := entities.NewSource("a1", "same", "team")
		second := entities.NewSource("b2", "same", "team")

		// then
		assert.NotEqual(t, first.DirName, second.DirName)
	})
}
