package caption

import (
	"errors"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

var ErrUnsafeURL = errors.New("image url must be a public http or https address")

// CheckImageURL отсекает схемы кроме http(s), localhost и внутренние IP в ссылке.
// Имена хостов проверяются при соединении, см. publicTransport.
func CheckImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrUnsafeURL
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return ErrUnsafeURL
	}
	if addr, err := netip.ParseAddr(host); err == nil && !isPublic(addr) {
		return ErrUnsafeURL
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}

// publicTransport соединяется только с публичными адресами, в том числе после DNS и редиректов.
func publicTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil || !isPublic(addr) {
				return ErrUnsafeURL
			}
			return nil
		},
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = dialer.DialContext
	return t
}
