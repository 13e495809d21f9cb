package transport

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"math/big"
	"net"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

var defaultTLSConfig = tls.Config{
	NextProtos: []string{"vchan-quic"},
}

// quicSocket carries length prefixed messages over the single stream of a
// QUIC connection.
type quicSocket struct {
	Socket
	conn quic.Connection
}

func (s *quicSocket) Close() error {
	s.Socket.Close()
	return s.conn.CloseWithError(0, "close connection")
}

// DialQUIC returns a Dialer opening one stream per QUIC connection. A nil
// tlsConf dials without verifying the server certificate.
func DialQUIC(addr string, tlsConf *tls.Config) Dialer {
	if tlsConf == nil {
		tlsConf = defaultTLSConfig.Clone()
		tlsConf.InsecureSkipVerify = true
	}
	return DialerFunc(func(ctx context.Context) (Socket, error) {
		conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
		if err != nil {
			return nil, err
		}
		stream, err := conn.OpenStreamSync(ctx)
		if err != nil {
			conn.CloseWithError(0, "open stream")
			return nil, err
		}
		// streams are only announced to the remote once written to
		if _, err := stream.Write([]byte("!")); err != nil {
			conn.CloseWithError(0, "open stream")
			return nil, err
		}
		return &quicSocket{Socket: NewStreamSocket(stream), conn: conn}, nil
	})
}

type quicListener struct {
	l      *quic.Listener
	cancel context.CancelFunc
}

// Addr returns the UDP address the listener is bound to.
func (l *quicListener) Addr() net.Addr {
	return l.l.Addr()
}

func (l *quicListener) Close() error {
	l.cancel()
	return l.l.Close()
}

// ListenQUIC accepts QUIC connections on addr and serves their first stream
// on h. A nil tlsConf uses a generated self-signed certificate.
func ListenQUIC(addr string, tlsConf *tls.Config, h *Host) (io.Closer, error) {
	if tlsConf == nil {
		var err error
		if tlsConf, err = SelfSignedTLSConfig(); err != nil {
			return nil, err
		}
	}
	l, err := quic.ListenAddr(addr, tlsConf, nil)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			conn, err := l.Accept(ctx)
			if err != nil {
				h.log.Debug("quic accept stopped", zap.Error(err))
				return
			}
			go func() {
				stream, err := conn.AcceptStream(ctx)
				if err != nil {
					conn.CloseWithError(0, "accept stream")
					return
				}
				header := make([]byte, 1)
				if _, err := io.ReadFull(stream, header); err != nil {
					conn.CloseWithError(0, "accept stream")
					return
				}
				h.Serve(&quicSocket{Socket: NewStreamSocket(stream), conn: conn})
			}()
		}
	}()
	return &quicListener{l: l, cancel: cancel}, nil
}

// SelfSignedTLSConfig returns a server TLS config with a freshly generated
// certificate.
func SelfSignedTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	template := x509.Certificate{SerialNumber: big.NewInt(1)}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	cfg := defaultTLSConfig.Clone()
	cfg.Certificates = []tls.Certificate{tlsCert}
	return cfg, nil
}
