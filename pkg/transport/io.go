package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/WhileEndless/go-rawfetch/pkg/buffer"
	"github.com/WhileEndless/go-rawfetch/pkg/constants"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/timing"
)

// send writes payload in full, retrying short writes.
func (t *Transport) send(ctx context.Context, conn net.Conn, config Config, payload []byte) error {
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = constants.DefaultWriteTimeout
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.NewIOError("setting write deadline", err)
	}

	written := 0
	for written < len(payload) {
		n, err := conn.Write(payload[written:])
		written += n
		if err != nil {
			return t.ioError(ctx, config, "write", writeTimeout, err)
		}
	}
	return nil
}

// receive reads until the peer closes the connection.
func (t *Transport) receive(ctx context.Context, conn net.Conn, config Config, timer *timing.Timer) ([]byte, error) {
	readTimeout := config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = constants.DefaultReadTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, errors.NewIOError("setting read deadline", err)
	}

	chunk := make([]byte, chunkSize(config.BufferSize))
	acc := buffer.New(config.MaxResponseSize)
	defer acc.Close()

	timer.StartTTFB()
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			timer.EndTTFB()
			if _, werr := acc.Write(chunk[:n]); werr != nil {
				return nil, werr
			}
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			break
		}
		// Servers often close TLS connections without close_notify once
		// the response is out.
		if config.IsTLS() && stderrors.Is(err, io.ErrUnexpectedEOF) && acc.Size() > 0 {
			t.logger.Debug("TLS peer closed without close_notify",
				zap.String("host", config.Host), zap.Int64("bytes", acc.Size()))
			break
		}
		return nil, t.ioError(ctx, config, "read", readTimeout, err)
	}

	if acc.Size() == 0 {
		if config.IsTLS() {
			return nil, errors.NewTLSError(config.Host, config.Port, "read", stderrors.New("empty response"))
		}
		return nil, errors.NewEmptyResponseError(config.Host, config.Port)
	}
	return acc.Bytes(), nil
}

// ioError classifies a read or write failure. TLS failures are reported as
// TLS errors, plain ones as I/O errors, timeouts as timeouts.
func (t *Transport) ioError(ctx context.Context, config Config, op string, timeout time.Duration, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if errors.IsTimeoutError(err) {
		return errors.NewTimeoutError(op, timeout, err)
	}
	if config.IsTLS() {
		return errors.NewTLSError(config.Host, config.Port, op, err)
	}
	return errors.NewIOError(op+" "+config.Host, err)
}

func chunkSize(hint int) int {
	switch {
	case hint <= 0:
		return constants.DefaultBufferSize
	case hint > constants.MaxBufferSize:
		return constants.MaxBufferSize
	default:
		return hint
	}
}
