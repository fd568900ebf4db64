package ecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang/protobuf/proto"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	DefaultBasePath = "/_ecache/"
	// 单个值最大字节数
	maxValueBytes = 1 << 20
)

// Server 通过http暴露本进程内的Group
type Server struct {
	// 监听地址，比如localhost:9999，只用于日志
	self string
	// 基础路径，避免冲突，比如"/_ecache/"
	basePath string
	groups   *Groups
	logger   *zap.Logger
}

// NewServer 创建一个Server
func NewServer(self string, groups *Groups, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		self:     self,
		basePath: DefaultBasePath,
		groups:   groups,
		logger:   logger.Named("server").With(zap.String("self", self)),
	}
}

// SetBasePath 设置基础路径，必须以/开头和结尾
func (s *Server) SetBasePath(basePath string) {
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	s.basePath = basePath
}

func (s *Server) BasePath() string {
	return s.basePath
}

// ServeHTTP 处理所有http请求
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, s.basePath) {
		http.Error(w, "unexpected path: "+r.URL.Path, http.StatusNotFound)
		return
	}
	s.logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	// /<basePath>/<groupName>/<key>
	parts := strings.SplitN(r.URL.Path[len(s.basePath):], "/", 2)
	if parts[0] == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	groupName := parts[0]
	group := s.groups.Get(groupName)
	if group == nil {
		http.Error(w, "no such group: "+groupName, http.StatusNotFound)
		return
	}

	// /<basePath>/<groupName> 返回统计
	if len(parts) == 1 || parts[1] == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.serveStats(w, group)
		return
	}

	key := parts[1]
	switch r.Method {
	case http.MethodGet:
		s.serveGet(w, group, key)
	case http.MethodPut:
		s.servePut(w, r, group, key)
	case http.MethodDelete:
		if err := group.Remove(key); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveGet(w http.ResponseWriter, group *Group, key string) {
	view, err := group.Get(key)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	body, err := proto.Marshal(wrapperspb.Bytes(view.ByteSlice()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(body)
}

func (s *Server) servePut(w http.ResponseWriter, r *http.Request, group *Group, key string) {
	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("reading request body: %v", err), http.StatusRequestEntityTooLarge)
		return
	}
	if err := group.Put(key, NewByteView(value)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveStats(w http.ResponseWriter, group *Group) {
	stats := group.Stats()
	msg, err := structpb.NewStruct(map[string]any{
		"group":     group.Name(),
		"policy":    group.Policy(),
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
		"len":       stats.Len,
		"capacity":  stats.Capacity,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := proto.Marshal(msg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrKeyRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Client 远程缓存服务的请求客户端
type Client struct {
	// 比如http://localhost:9999
	addr string
	// 比如http://localhost:9999/_ecache/
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建一个Client，addr比如http://localhost:9999
func NewClient(addr string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	addr = strings.TrimSuffix(addr, "/")
	return &Client{
		addr:       addr,
		baseURL:    addr + DefaultBasePath,
		httpClient: httpClient,
	}
}

// SetBasePath 和Server的基础路径保持一致
func (c *Client) SetBasePath(basePath string) {
	c.baseURL = c.addr + "/" + strings.Trim(basePath, "/") + "/"
}

func (c *Client) Get(ctx context.Context, group, key string) (ByteView, error) {
	body, err := c.do(ctx, http.MethodGet, c.keyURL(group, key), nil)
	if err != nil {
		return ByteView{}, err
	}
	var out wrapperspb.BytesValue
	if err := proto.Unmarshal(body, &out); err != nil {
		return ByteView{}, fmt.Errorf("decoding response body: %w", err)
	}
	return ByteView{b: out.GetValue()}, nil
}

func (c *Client) Put(ctx context.Context, group, key string, value []byte) error {
	_, err := c.do(ctx, http.MethodPut, c.keyURL(group, key), value)
	return err
}

func (c *Client) Remove(ctx context.Context, group, key string) error {
	_, err := c.do(ctx, http.MethodDelete, c.keyURL(group, key), nil)
	return err
}

// Stats 获取远程Group的统计
func (c *Client) Stats(ctx context.Context, group string) (Stats, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+url.PathEscape(group), nil)
	if err != nil {
		return Stats{}, err
	}
	var out structpb.Struct
	if err := proto.Unmarshal(body, &out); err != nil {
		return Stats{}, fmt.Errorf("decoding response body: %w", err)
	}
	fields := out.GetFields()
	number := func(name string) int64 {
		return int64(fields[name].GetNumberValue())
	}
	return Stats{
		Hits:      number("hits"),
		Misses:    number("misses"),
		Evictions: number("evictions"),
		Len:       int(number("len")),
		Capacity:  int(number("capacity")),
	}, nil
}

// Getter 把远程Group作为本地Group的数据来源
func (c *Client) Getter(group string) Getter {
	return GetterFunc(func(key string) (ByteView, error) {
		return c.Get(context.Background(), group, key)
	})
}

func (c *Client) keyURL(group, key string) string {
	return c.baseURL + url.PathEscape(group) + "/" + url.PathEscape(key)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(string(data)))
	case res.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("server returned: %v: %s", res.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
