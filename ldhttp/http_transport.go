// Package ldhttp provides helpers for constructing an *http.Transport with the small set of
// options the SDK needs to expose to applications (custom CA certificates, proxy configuration,
// connect timeout), without requiring every caller to build a transport by hand.
package ldhttp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"time"
)

// transportOpter is implemented by TransportOption values that need to modify the transport
// directly, as opposed to values that only need to be recorded for later inspection.
type transportOpter interface {
	apply(info *httpTransportOptInfo, transport *http.Transport) error
}

// TransportOption is an optional configuration parameter for NewHTTPTransport.
type TransportOption interface {
	transportOpter
}

// httpTransportOptInfo accumulates details about the options that were applied, in case a caller
// wants to know what was configured (currently only the connect timeout is exposed this way).
type httpTransportOptInfo struct {
	connectTimeout time.Duration
}

type caCertOption struct {
	certData []byte
}

func (o caCertOption) apply(info *httpTransportOptInfo, transport *http.Transport) error {
	return addCACert(o.certData, transport)
}

// CACertOption creates a TransportOption to add a trusted root CA certificate, provided as raw
// PEM data, to the TLS configuration.
func CACertOption(certData []byte) TransportOption {
	return caCertOption{certData: certData}
}

type caCertFileOption struct {
	filePath string
}

func (o caCertFileOption) apply(info *httpTransportOptInfo, transport *http.Transport) error {
	certData, err := ioutil.ReadFile(o.filePath) //nolint:gosec // caller-provided path, by design
	if err != nil {
		return errors.New("can't read CA certificate file: " + err.Error())
	}
	return addCACert(certData, transport)
}

// CACertFileOption creates a TransportOption to add a trusted root CA certificate, specified by
// a file path containing PEM data, to the TLS configuration.
func CACertFileOption(filePath string) TransportOption {
	return caCertFileOption{filePath: filePath}
}

func addCACert(certData []byte, transport *http.Transport) error {
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12} //nolint:gosec // overridden below if needed
	}
	if transport.TLSClientConfig.RootCAs == nil {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		transport.TLSClientConfig.RootCAs = pool
	}
	if !transport.TLSClientConfig.RootCAs.AppendCertsFromPEM(certData) {
		return errors.New("invalid CA certificate data")
	}
	return nil
}

type proxyOption struct {
	proxyURL url.URL
}

func (o proxyOption) apply(info *httpTransportOptInfo, transport *http.Transport) error {
	u := o.proxyURL
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return &u, nil
	}
	return nil
}

// ProxyOption creates a TransportOption to set a fixed proxy URL, overriding the default
// behavior of deriving the proxy from environment variables.
func ProxyOption(proxyURL url.URL) TransportOption {
	return proxyOption{proxyURL: proxyURL}
}

type connectTimeoutOption struct {
	timeout time.Duration
}

func (o connectTimeoutOption) apply(info *httpTransportOptInfo, transport *http.Transport) error {
	info.connectTimeout = o.timeout
	transport.DialContext = (&net.Dialer{
		Timeout:   o.timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return nil
}

// ConnectTimeoutOption creates a TransportOption to set the timeout for establishing a new
// connection (as opposed to the overall request timeout, which is set on the http.Client).
func ConnectTimeoutOption(timeout time.Duration) TransportOption {
	return connectTimeoutOption{timeout: timeout}
}

// NewHTTPTransport creates an *http.Transport based on the given options. The returned
// time.Duration is the connect timeout that was configured, or zero if none was set; it is
// provided for callers that need to know the effective timeout without re-deriving it from the
// options list.
func NewHTTPTransport(options ...TransportOption) (*http.Transport, time.Duration, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	info := httpTransportOptInfo{}
	for _, o := range options {
		if err := o.apply(&info, transport); err != nil {
			return nil, 0, err
		}
	}
	return transport, info.connectTimeout, nil
}
