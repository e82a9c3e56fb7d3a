package httpserver

import (
	"io"
)

// parseState names the states of §4.6's parser state machine: "Verb → Path
// → Version → NewLine → (HeaderName → HeaderSpacing → HeaderValue →
// NewLine)* → Body".
type parseState int

const (
	stateVerb parseState = iota
	statePath
	stateVersion
	stateHeaderName
	stateHeaderSpacing
	stateHeaderValue
	stateBody
)

// Parser reads one HTTP request at a time off a connection into a single
// leased arena buffer, byte-for-byte in place — no per-field allocation.
// A Parser is bound to one connection for its lifetime; Reset prepares it
// to read the next Keep-Alive request.
type Parser struct {
	arena  []byte // the connection's leased read buffer, reused verbatim
	filled int    // bytes of arena currently holding unconsumed input
	pos    int    // read cursor into arena[:filled]
}

// NewParser wraps arena, the byte slice behind one leased read-buffer pool
// entry.
func NewParser(arena []byte) *Parser {
	return &Parser{arena: arena}
}

// Reset drops any unconsumed bytes so the next Parse call starts clean.
// Pipelined bytes beyond the current request are intentionally not
// preserved: §4.6 describes Keep-Alive as "reset parser + buffers and
// resume reading", not pipelining.
func (p *Parser) Reset() {
	p.filled = 0
	p.pos = 0
}

// BodySink receives successive body chunks as they're parsed off the wire.
// It returns false to refuse further bytes, which fails the request with
// PayloadTooLarge.
type BodySink func(chunk []byte) bool

// Parse reads one request from r into req. bodySink is invoked with each
// chunk of the request body as it becomes available; it may be nil for a
// request with no body.
func (p *Parser) Parse(r io.Reader, req *Request, bodySink BodySink) (ParseStatus, error) {
	req.reset()

	verbStart := p.pos
	for {
		b, ok, err := p.peekByte(r)
		if err != nil {
			return BadRequest, err
		}
		if !ok {
			return BadRequest, io.ErrUnexpectedEOF
		}
		if b == ' ' {
			req.Verb = string(p.arena[verbStart:p.pos])
			p.pos++ // consume the space
			break
		}
		if p.pos-verbStart > 16 {
			return BadRequest, errTooLong
		}
		p.pos++
	}

	pathStart := p.pos
	for {
		b, ok, err := p.peekByte(r)
		if err != nil {
			return BadRequest, err
		}
		if !ok {
			return BadRequest, io.ErrUnexpectedEOF
		}
		if b == ' ' {
			break
		}
		p.pos++
	}
	rawPath := p.arena[pathStart:p.pos]
	p.pos++ // consume the space

	versionStart := p.pos
	for {
		b, ok, err := p.peekByte(r)
		if err != nil {
			return BadRequest, err
		}
		if !ok {
			return BadRequest, io.ErrUnexpectedEOF
		}
		if b == '\r' || b == '\n' {
			break
		}
		p.pos++
	}
	req.Version = string(p.arena[versionStart:p.pos])
	if req.Version != "HTTP/1.1" && req.Version != "HTTP/1.0" {
		return HTTPVersionNotSupported, nil
	}
	if status, err := p.consumeCRLF(r); status != ParseOK {
		return status, err
	}

	status, err := p.parseHeaders(r, req)
	if status != ParseOK {
		return status, err
	}

	if status := p.parsePathAndQuery(rawPath, req); status != ParseOK {
		return status, nil
	}
	if status := p.parseCookies(req); status != ParseOK {
		return status, nil
	}

	return p.parseBody(r, req, bodySink)
}

func (p *Parser) parseHeaders(r io.Reader, req *Request) (ParseStatus, error) {
	for {
		b, ok, err := p.peekByte(r)
		if err != nil {
			return BadRequest, err
		}
		if !ok {
			return BadRequest, io.ErrUnexpectedEOF
		}
		if b == '\r' || b == '\n' {
			// blank line: end of headers
			if status, err := p.consumeCRLF(r); status != ParseOK {
				return status, err
			}
			return ParseOK, nil
		}

		nameStart := p.pos
		for {
			b, ok, err := p.peekByte(r)
			if err != nil {
				return BadRequest, err
			}
			if !ok {
				return BadRequest, io.ErrUnexpectedEOF
			}
			if b == ':' {
				break
			}
			p.pos++
		}
		name := p.arena[nameStart:p.pos]
		p.pos++ // consume ':'

		for {
			b, ok, err := p.peekByte(r)
			if err != nil {
				return BadRequest, err
			}
			if !ok {
				return BadRequest, io.ErrUnexpectedEOF
			}
			if b != ' ' && b != '\t' {
				break
			}
			p.pos++
		}

		valueStart := p.pos
		for {
			b, ok, err := p.peekByte(r)
			if err != nil {
				return BadRequest, err
			}
			if !ok {
				return BadRequest, io.ErrUnexpectedEOF
			}
			if b == '\r' || b == '\n' {
				break
			}
			p.pos++
		}
		value := p.arena[valueStart:p.pos]
		if status, err := p.consumeCRLF(r); status != ParseOK {
			return status, err
		}

		if req.HeaderCount >= MaxHeaders {
			return BadRequest, nil
		}
		req.Headers[req.HeaderCount] = kv{Name: name, Value: value}
		req.HeaderCount++
	}
}

// consumeCRLF advances past a line terminator, accepting a bare "\n" as
// well as "\r\n".
func (p *Parser) consumeCRLF(r io.Reader) (ParseStatus, error) {
	b, ok, err := p.peekByte(r)
	if err != nil {
		return BadRequest, err
	}
	if !ok {
		return BadRequest, io.ErrUnexpectedEOF
	}
	if b == '\r' {
		p.pos++
		b, ok, err = p.peekByte(r)
		if err != nil {
			return BadRequest, err
		}
		if !ok {
			return BadRequest, io.ErrUnexpectedEOF
		}
	}
	if b != '\n' {
		return BadRequest, nil
	}
	p.pos++
	return ParseOK, nil
}

// peekByte returns the byte at the read cursor, filling the arena from r if
// the cursor has run past what's currently buffered. ok is false only on
// clean EOF with no byte available.
func (p *Parser) peekByte(r io.Reader) (byte, bool, error) {
	for p.pos >= p.filled {
		if p.filled >= len(p.arena) {
			return 0, false, errArenaExhausted
		}
		n, err := r.Read(p.arena[p.filled:])
		if n > 0 {
			p.filled += n
			continue
		}
		if err != nil {
			return 0, false, err
		}
	}
	return p.arena[p.pos], true, nil
}

func (p *Parser) parsePathAndQuery(rawPath []byte, req *Request) ParseStatus {
	qIdx := -1
	for i, c := range rawPath {
		if c == '?' {
			qIdx = i
			break
		}
	}
	path := rawPath
	if qIdx >= 0 {
		path = rawPath[:qIdx]
		query := rawPath[qIdx+1:]
		if status := parseQueryString(query, req); status != ParseOK {
			return status
		}
	}
	decoded, ok := percentDecodeInPlace(path)
	if !ok {
		return BadRequest
	}
	req.Path = decoded
	return ParseOK
}

func parseQueryString(query []byte, req *Request) ParseStatus {
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			pair := query[start:i]
			start = i + 1
			if len(pair) == 0 {
				continue
			}
			eq := -1
			for j, c := range pair {
				if c == '=' {
					eq = j
					break
				}
			}
			var name, value []byte
			if eq >= 0 {
				name, value = pair[:eq], pair[eq+1:]
			} else {
				name = pair
			}
			name, ok := percentDecodeInPlace(name)
			if !ok {
				return BadRequest
			}
			value, ok = percentDecodeInPlace(value)
			if !ok {
				return BadRequest
			}
			if req.QueryCount >= MaxQueryParams {
				return BadRequest
			}
			req.Query[req.QueryCount] = kv{Name: name, Value: value}
			req.QueryCount++
		}
	}
	return ParseOK
}

func (p *Parser) parseCookies(req *Request) ParseStatus {
	raw, ok := req.Header("Cookie")
	if !ok {
		return ParseOK
	}
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ';' {
			pair := raw[start:i]
			start = i + 1
			for len(pair) > 0 && pair[0] == ' ' {
				pair = pair[1:]
			}
			if len(pair) == 0 {
				continue
			}
			eq := -1
			for j, c := range pair {
				if c == '=' {
					eq = j
					break
				}
			}
			if eq < 0 {
				continue
			}
			name, value := pair[:eq], pair[eq+1:]
			name, ok := percentDecodeInPlace(name)
			if !ok {
				return BadRequest
			}
			value, ok = percentDecodeInPlace(value)
			if !ok {
				return BadRequest
			}
			if req.CookieCount >= MaxCookies {
				return BadRequest
			}
			req.Cookies[req.CookieCount] = kv{Name: name, Value: value}
			req.CookieCount++
		}
	}
	return ParseOK
}

// parseBody reads exactly Content-Length bytes (§4.6 rejects chunked and
// content-encoded bodies with NotImplemented rather than decoding them).
func (p *Parser) parseBody(r io.Reader, req *Request, sink BodySink) (ParseStatus, error) {
	if _, has := req.Header("Transfer-Encoding"); has {
		return NotImplemented, nil
	}
	if _, has := req.Header("Content-Encoding"); has {
		return NotImplemented, nil
	}

	clHeader, has := req.Header("Content-Length")
	if !has {
		return ParseOK, nil
	}
	contentLength, ok := parseUintBytes(clHeader)
	if !ok {
		return BadRequest, nil
	}
	if contentLength == 0 {
		return ParseOK, nil
	}
	if sink == nil {
		return BadRequest, nil
	}

	remaining := contentLength
	// Drain whatever is already buffered in the arena first.
	if p.pos < p.filled {
		n := p.filled - p.pos
		if n > remaining {
			n = remaining
		}
		if !sink(p.arena[p.pos : p.pos+n]) {
			return PayloadTooLarge, nil
		}
		p.pos += n
		remaining -= n
	}

	for remaining > 0 {
		p.filled = 0
		p.pos = 0
		readLen := len(p.arena)
		if remaining < readLen {
			readLen = remaining
		}
		n, err := r.Read(p.arena[:readLen])
		if n > 0 {
			if !sink(p.arena[:n]) {
				return PayloadTooLarge, nil
			}
			remaining -= n
		}
		if err != nil {
			if remaining > 0 {
				return BadRequest, err
			}
			break
		}
	}
	return ParseOK, nil
}
