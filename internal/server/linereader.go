package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var errLineTooLong = errors.New("line too long")

// readLine returns the next line without its terminator. A line longer than
// limit bytes is consumed up to its newline and reported as errLineTooLong so
// the connection can carry on. limit <= 0 means no limit. A final line without
// a newline is returned before io.EOF.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			body := len(buf) + len(bytes.TrimRight(chunk, "\r\n"))
			if limit > 0 && body > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, errLineTooLong
			}
			return bytes.TrimRight(buf, "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(buf) > 0 && !tooLong:
			return buf, nil
		default:
			return nil, err
		}
	}
}
