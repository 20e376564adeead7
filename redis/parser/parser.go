package parser

import (
	"errors"
	"strconv"

	"github.com/hdt3213/solodis/lib/iobuf"
)

// ErrIncomplete means the buffer does not yet hold one complete frame.
// The buffer is left untouched; the caller waits for more bytes.
var ErrIncomplete = errors.New("incomplete frame")

// ErrProtocol means the frame is malformed beyond recovery. The buffer is
// left untouched; the caller is expected to close the connection.
var ErrProtocol = errors.New("protocol error")

const (
	maxArrayLen = 1024 * 1024
	maxBulkLen  = 512 * 1024 * 1024
)

// Parse extracts one command frame from the front of buf.
//
// A frame is either a RESP2 array of bulk strings or an inline command
// terminated by CRLF. On success exactly the frame's bytes are consumed,
// leaving any pipelined successors in place, and the returned arguments
// are copies independent of the buffer. A null array yields an empty
// command with no arguments.
func Parse(buf *iobuf.Buffer) ([][]byte, error) {
	data := buf.ReadableSlice()
	if len(data) == 0 {
		return nil, ErrIncomplete
	}
	if data[0] == '*' {
		args, consumed, err := parseArray(data)
		if err != nil {
			return nil, err
		}
		buf.Consume(consumed)
		return args, nil
	}
	args, consumed, err := parseInline(data)
	if err != nil {
		return nil, err
	}
	buf.Consume(consumed)
	return args, nil
}

// parseArray parses *N\r\n followed by N bulk strings. It never consumes
// from the buffer; the caller consumes the returned byte count on success.
func parseArray(data []byte) ([][]byte, int, error) {
	count, pos, err := parseHeader(data, 0, '*')
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		// null array *-1\r\n: an empty command
		return [][]byte{}, pos, nil
	}
	if count > maxArrayLen {
		return nil, 0, ErrProtocol
	}
	args := make([][]byte, 0, count)
	for i := int64(0); i < count; i++ {
		if pos >= len(data) {
			return nil, 0, ErrIncomplete
		}
		if data[pos] != '$' {
			return nil, 0, ErrProtocol
		}
		strLen, next, err := parseHeader(data, pos, '$')
		if err != nil {
			return nil, 0, err
		}
		pos = next
		if strLen > maxBulkLen {
			return nil, 0, ErrProtocol
		}
		if strLen < 0 {
			// null bulk inside a command: an empty argument
			args = append(args, []byte{})
			continue
		}
		// the payload is read by length, never scanned, so it may
		// contain CRLF or any other bytes
		if pos+int(strLen)+2 > len(data) {
			return nil, 0, ErrIncomplete
		}
		if data[pos+int(strLen)] != '\r' || data[pos+int(strLen)+1] != '\n' {
			return nil, 0, ErrProtocol
		}
		arg := make([]byte, strLen)
		copy(arg, data[pos:pos+int(strLen)])
		args = append(args, arg)
		pos += int(strLen) + 2
	}
	return args, pos, nil
}

// parseHeader reads "<prefix><integer>\r\n" at offset and returns the
// integer and the offset just past the CRLF.
func parseHeader(data []byte, offset int, prefix byte) (int64, int, error) {
	if offset >= len(data) || data[offset] != prefix {
		return 0, 0, ErrProtocol
	}
	crlf := findCRLF(data, offset+1)
	if crlf < 0 {
		return 0, 0, ErrIncomplete
	}
	n, err := strconv.ParseInt(string(data[offset+1:crlf]), 10, 64)
	if err != nil {
		return 0, 0, ErrProtocol
	}
	return n, crlf + 2, nil
}

// parseInline reads up to the first CRLF and splits on runs of spaces.
func parseInline(data []byte) ([][]byte, int, error) {
	crlf := findCRLF(data, 0)
	if crlf < 0 {
		return nil, 0, ErrIncomplete
	}
	line := data[:crlf]
	args := make([][]byte, 0, 4)
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		start := i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		if i > start {
			arg := make([]byte, i-start)
			copy(arg, line[start:i])
			args = append(args, arg)
		}
	}
	return args, crlf + 2, nil
}

func findCRLF(data []byte, offset int) int {
	for i := offset; i+1 < len(data); i++ {
		if data[i] == '\r' && data[i+1] == '\n' {
			return i
		}
	}
	return -1
}
