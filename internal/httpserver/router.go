package httpserver

import "sort"

// Handler processes one matched request and writes its response.
type Handler func(req *Request, resp *Response)

// route is one registered (prefix, verb) → handler binding.
type route struct {
	prefix  string
	verb    string
	handler Handler
}

// Router dispatches requests to handlers keyed by (lowercased path prefix,
// verb). Routes are bucketed by the first byte of the prefix (§4.6:
// "buckets routes by firstByte(path) % 128") so a miss on a long prefix
// never has to scan routes that start with a different byte.
type Router struct {
	buckets     [128][]route
	defaultRoute Handler
}

// NewRouter returns an empty router. SetDefault installs the catch-all
// handler (typically one that writes NotFound).
func NewRouter() *Router {
	return &Router{}
}

// Handle registers handler for verb and the path prefix. Prefixes are
// matched case-insensitively; register them already lowercased.
func (rt *Router) Handle(verb, prefix string, handler Handler) {
	b := bucketOf(prefix)
	rt.buckets[b] = append(rt.buckets[b], route{prefix: prefix, verb: verb, handler: handler})
	// Longest-key-first within a bucket so "/threads/tags" matches before
	// the shorter "/threads" would otherwise shadow it.
	sort.SliceStable(rt.buckets[b], func(i, j int) bool {
		return len(rt.buckets[b][i].prefix) > len(rt.buckets[b][j].prefix)
	})
}

// SetDefault installs the handler used when no route matches.
func (rt *Router) SetDefault(handler Handler) {
	rt.defaultRoute = handler
}

func bucketOf(prefix string) int {
	if len(prefix) == 0 {
		return 0
	}
	return int(prefix[0]) % 128
}

// Dispatch lowercases and trailing-slash-normalizes req.Path, finds the
// longest matching (prefix, verb) route, fills req.ExtraPathParts from the
// unmatched remainder, and invokes its handler — or the default route.
func (rt *Router) Dispatch(req *Request, resp *Response) {
	path := normalizePath(req.Path)

	b := bucketOf(string(path))
	for _, r := range rt.buckets[b] {
		if r.verb != req.Verb {
			continue
		}
		if !hasPrefix(path, r.prefix) {
			continue
		}
		rest := path[len(r.prefix):]
		if !fillExtraParts(rest, req) {
			resp.WriteStatus(400)
			return
		}
		r.handler(req, resp)
		return
	}

	if rt.defaultRoute != nil {
		rt.defaultRoute(req, resp)
		return
	}
	resp.WriteStatus(404)
}

// normalizePath lowercases ASCII letters in place and ensures a trailing
// slash, matching §4.6's "lowercased, trailing / enforced".
func normalizePath(path []byte) []byte {
	for i, c := range path {
		if c >= 'A' && c <= 'Z' {
			path[i] = c + ('a' - 'A')
		}
	}
	if len(path) == 0 || path[len(path)-1] != '/' {
		path = append(path, '/')
	}
	return path
}

func hasPrefix(path []byte, prefix string) bool {
	if len(path) < len(prefix) {
		return false
	}
	return string(path[:len(prefix)]) == prefix
}

// fillExtraParts splits the unmatched remainder of the path on '/' into
// req.ExtraPathParts, bounded to MaxExtraPathParts.
func fillExtraParts(rest []byte, req *Request) bool {
	if len(rest) > 0 && rest[0] == '/' {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[len(rest)-1] == '/' {
		rest = rest[:len(rest)-1]
	}
	if len(rest) == 0 {
		return true
	}
	start := 0
	for i := 0; i <= len(rest); i++ {
		if i == len(rest) || rest[i] == '/' {
			if req.ExtraPathPartsCount >= MaxExtraPathParts {
				return false
			}
			req.ExtraPathParts[req.ExtraPathPartsCount] = rest[start:i]
			req.ExtraPathPartsCount++
			start = i + 1
		}
	}
	return true
}
