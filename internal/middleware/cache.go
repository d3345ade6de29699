package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/showtime-inventory-bench/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		cw.buf.Write(b[:min(int64(len(b)), remain)])
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// truncated reports whether more bytes were written than captured.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// SliceCache stores slice responses in Redis, one key namespace per dataset:
//
//	<prefix>:ds:<datasetId>:g<generation>:<sha1 of route/query>
//
// so that destroying a dataset can drop every cached response derived from it.
// Invalidation also bumps the dataset's generation (<prefix>:gen:<datasetId>),
// so a response computed from the old dataset by a request still in flight is
// stored under a generation nobody reads again.
type SliceCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log zerolog.Logger
}

// NewSliceCache returns a cache over rdb. A nil client or a disabled config
// turns the middleware into a pass-through and invalidation into a no-op.
func NewSliceCache(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) *SliceCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "slice"
	}
	return &SliceCache{cfg: cfg, rdb: rdb, log: log}
}

// Enabled reports whether responses are actually cached.
func (s *SliceCache) Enabled() bool { return s != nil && s.cfg.Enabled && s.rdb != nil }

// datasetPrefix is the key namespace of one dataset.
func (s *SliceCache) datasetPrefix(id string) string {
	if id == "" {
		id = "_"
	}
	return s.cfg.Prefix + ":ds:" + id + ":"
}

// generationKey holds the invalidation counter of one dataset. It lives
// outside datasetPrefix so invalidation scans never delete it.
func (s *SliceCache) generationKey(id string) string {
	if id == "" {
		id = "_"
	}
	return s.cfg.Prefix + ":gen:" + id
}

func (s *SliceCache) generation(ctx context.Context, id string) (int64, error) {
	gen, err := s.rdb.Get(ctx, s.generationKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// keyFor builds a stable cache key honoring prefix/strategy.
func (s *SliceCache) keyFor(c echo.Context, gen int64) string {
	r := c.Request()
	route := c.Path()
	query := r.URL.Query().Encode() // sorted, so parameter order does not split entries

	var parts []string
	switch strings.ToLower(s.cfg.KeyStrategy) {
	case "route":
		parts = []string{"route", route}
	case "method_route":
		parts = []string{"method", r.Method, "route", route}
	case "method_route_query":
		parts = []string{"method", r.Method, "route", route, "q", query}
	default: // "route_query"
		parts = []string{"route", route, "q", query}
	}
	// the dataset id is already part of the prefix, the rest of the path is not
	values := c.ParamValues()
	for i, name := range c.ParamNames() {
		if name != "id" && i < len(values) {
			parts = append(parts, name, values[i])
		}
	}

	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%sg%d:%x", s.datasetPrefix(c.Param("id")), gen, sum[:])
}

// Middleware serves cached GET responses and stores 200 responses on a miss.
// Headers are stored with the body so a hit is byte-identical to the miss.
func (s *SliceCache) Middleware() echo.MiddlewareFunc {
	if !s.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(s.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			ctx := c.Request().Context()
			gen, err := s.generation(ctx, c.Param("id"))
			if err != nil {
				s.log.Debug().Err(err).Str("dataset_id", c.Param("id")).Msg("cache generation read failed")
				return next(c)
			}
			key := s.keyFor(c, gen)

			if bs, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			} else if err != redis.Nil {
				s.log.Debug().Err(err).Str("key", key).Msg("cache read failed")
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated() {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			if err := s.rdb.SetEx(context.WithoutCancel(ctx), key, payload, s.cfg.TTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
			}
			return nil
		}
	}
}

// InvalidateDataset bumps the generation of datasetID and deletes every
// cached response of it.
func (s *SliceCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	if !s.Enabled() {
		return nil
	}
	genKey := s.generationKey(datasetID)
	if err := s.rdb.Incr(ctx, genKey).Err(); err != nil {
		return err
	}
	// outlives every entry written under an older generation
	if err := s.rdb.Expire(ctx, genKey, 2*s.cfg.TTL).Err(); err != nil {
		return err
	}
	pattern := escapeGlob(s.datasetPrefix(datasetID)) + "*"
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	n := 0
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
		n++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	s.log.Debug().Str("dataset_id", datasetID).Int("keys", n).Msg("cache invalidated")
	return nil
}

// escapeGlob quotes the characters Redis MATCH patterns treat specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
