package server

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	in := "short\r\n" + strings.Repeat("y", 100) + "\nok\ntail"
	r := bufio.NewReaderSize(strings.NewReader(in), 16)

	line, err := readLine(r, 32)
	require.NoError(t, err)
	assert.Equal(t, "short", string(line))

	_, err = readLine(r, 32)
	assert.ErrorIs(t, err, errLineTooLong)

	line, err = readLine(r, 32)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(line))

	line, err = readLine(r, 32)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(line))

	_, err = readLine(r, 32)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLineExactLimit(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader(strings.Repeat("z", 20)+"\n"), 16)

	line, err := readLine(r, 20)
	require.NoError(t, err)
	assert.Len(t, line, 20)
}
