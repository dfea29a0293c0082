package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger logs every HTTP request with its status and latency.
// Server errors log at error level, client errors at warn.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case status >= 500:
			level = zapcore.ErrorLevel
		case status >= 400:
			level = zapcore.WarnLevel
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetHeader(requestIDHeader)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}
		logger.Check(level, "http request").Write(fields...)
	}
}

// UnaryLoggingInterceptor logs unary RPC calls with timing and errors.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logRPC(ctx, logger, "unary RPC", info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs streaming RPC calls (health watches) when
// they end.
func StreamLoggingInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logRPC(ss.Context(), logger, "stream RPC", info.FullMethod, start, err)
		return err
	}
}

func logRPC(ctx context.Context, logger *zap.Logger, msg string, method string, start time.Time, err error) {
	code := codes.OK
	level := zapcore.InfoLevel
	if err != nil {
		code = status.Code(err)
		level = zapcore.ErrorLevel
	}

	requestID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			requestID = ids[0]
		}
	}

	logger.Check(level, msg).Write(
		zap.String("method", method),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
		zap.String("code", code.String()),
		zap.Error(err),
	)
}
