package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	xproxy "golang.org/x/net/proxy"
)

var (
	ErrInvalidProxyURL   = errors.New("无效的代理URL")
	ErrUnsupportedScheme = errors.New("不支持的代理协议")
)

// NewTransport 根据代理URL创建Transport
// 支持 http/https 代理和 socks5 代理，proxyURL为空时直连
func NewTransport(proxyURL string, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: timeout,
		IdleConnTimeout:     timeout,
		MaxIdleConnsPerHost: 2,
	}

	if proxyURL == "" {
		return transport, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", ErrInvalidProxyURL, proxyURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	case "socks5":
		socksDialer, err := xproxy.SOCKS5("tcp", parsed.Host, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProxyURL, err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socksDialer.(xproxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socksDialer.Dial(network, addr)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
	}

	return transport, nil
}
