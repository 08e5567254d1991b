package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/sandbox-world/internal/auth"
)

func TestPrintPasswordHash(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPasswordHash(strings.NewReader("s3cret\r\nлишнее\n"), &out))

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.CheckPassword(hash, "s3cret"), "хэшируется только первая строка без перевода строки")

	err := printPasswordHash(strings.NewReader("\n"), &out)
	assert.Error(t, err, "пустой пароль")
}
