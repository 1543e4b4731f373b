package remote

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Target is an SFTP server and the directory on it a provider is rooted at
type Target struct {
	User string // empty = current user
	Host string
	Port int // 0 = default (22)
	Path string
}

// ParseTarget parses "sftp://[user@]host[:port][/path]" or the scp-like "[user@]host:[port:]path".
//
// Rules:
//   - An sftp:// URL may omit the path, meaning "/"
//   - In the scp-like form the path is mandatory and may be relative to the login directory
//   - Anything without a host part is rejected
func ParseTarget(arg string) (Target, error) {
	if arg == "" {
		return Target{}, fmt.Errorf("empty SFTP target")
	}
	if strings.HasPrefix(arg, "sftp://") {
		return parseURL(arg)
	}

	colonIdx := strings.Index(arg, ":")
	if colonIdx < 0 {
		return Target{}, fmt.Errorf("SFTP target %q has no host part", arg)
	}
	hostPart, rest := arg[:colonIdx], arg[colonIdx+1:]

	t := Target{}
	if atIdx := strings.Index(hostPart, "@"); atIdx >= 0 {
		t.User = hostPart[:atIdx]
		t.Host = hostPart[atIdx+1:]
	} else {
		t.Host = hostPart
	}
	if t.Host == "" {
		return Target{}, fmt.Errorf("empty host in SFTP target %q", arg)
	}

	// port:path, where port is all digits
	if secondColon := strings.Index(rest, ":"); secondColon > 0 {
		if port, err := strconv.Atoi(rest[:secondColon]); err == nil && port > 0 && port <= 65535 {
			t.Port = port
			rest = rest[secondColon+1:]
		}
	}
	if rest == "" {
		return Target{}, fmt.Errorf("empty path in SFTP target %q", arg)
	}
	t.Path = rest
	return t, nil
}

func parseURL(arg string) (Target, error) {
	u, err := url.Parse(arg)
	if err != nil {
		return Target{}, fmt.Errorf("couldn't parse SFTP URL %q: %w", arg, err)
	}
	t := Target{Host: u.Hostname(), Path: u.Path}
	if t.Host == "" {
		return Target{}, fmt.Errorf("empty host in SFTP URL %q", arg)
	}
	if u.User != nil {
		t.User = u.User.Username()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, fmt.Errorf("invalid port in SFTP URL %q", arg)
		}
		t.Port = port
	}
	if t.Path == "" {
		t.Path = "/"
	}
	return t, nil
}

// Addr returns host:port for dialing
func (t Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", t.Host, port)
}

// Spec returns "user@host" or "host", for display and ssh command lines
func (t Target) Spec() string {
	if t.User != "" {
		return t.User + "@" + t.Host
	}
	return t.Host
}

func (t Target) String() string {
	p := t.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	prefix := ""
	if t.User != "" {
		prefix = t.User + "@"
	}
	return "sftp://" + prefix + t.Addr() + p
}
