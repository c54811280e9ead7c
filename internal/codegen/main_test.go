package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_MatchesCheckedInFile(t *testing.T) {
	want, err := os.ReadFile("../../source_generated.go")
	require.NoError(t, err)
	assert.Equal(t, string(want), generate(3))
}

func TestGenerateDerive_Arity(t *testing.T) {
	code := generateDerive(2)
	assert.Contains(t, code, "func Derive2[T any, D1 any, D2 any](")
	assert.Contains(t, code, "factory func(context.Context, D1, D2) (T, error),")
	assert.Contains(t, code, "return v, chain(c1, c2), err")
	assert.Contains(t, code, "from the value of 2 other sources")
}
