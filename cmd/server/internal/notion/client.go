package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/houzhh15/devreport/pkg/logger"
	"github.com/houzhh15/devreport/pkg/metrics"
)

// ToolClient 工具调用传输层的抽象
// 所有远端存储操作都经由外部工具服务完成，响应被包在文本信封里
type ToolClient interface {
	// Connect 建立会话；调用方必须在所有退出路径上 Close
	Connect(ctx context.Context) error
	// CallTool 调用一个远端工具并返回信封内已解出的 JSON 载荷
	CallTool(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error)
	// Close 释放会话，可重复调用
	Close() error
}

// MCPClient 基于 HTTP JSON-RPC 2.0 的工具调用客户端
type MCPClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
	connected  bool
}

// NewMCPClient 创建 MCP 客户端
func NewMCPClient(endpoint, token string) *MCPClient {
	return &MCPClient{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// rpcRequest JSON-RPC 2.0 请求
type rpcRequest struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse JSON-RPC 2.0 响应
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolResult MCP 工具执行结果信封
type toolResult struct {
	IsError bool          `json:"isError"`
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Connect 发送 initialize 建立会话
func (c *MCPClient) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}
	params := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"clientInfo": map[string]interface{}{
			"name":    "devreport",
			"version": "1.0.0",
		},
		"capabilities": map[string]interface{}{},
	}
	if _, err := c.roundTrip(ctx, "initialize", params); err != nil {
		return fmt.Errorf("mcp initialize failed: %w", err)
	}
	c.connected = true
	return nil
}

// Close 结束会话；幂等
func (c *MCPClient) Close() error {
	if !c.connected {
		return nil
	}
	c.connected = false
	c.httpClient.CloseIdleConnections()
	return nil
}

// CallTool 通过 tools/call 调用远端工具并解包信封
func (c *MCPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error) {
	if !c.connected {
		return nil, fmt.Errorf("mcp client not connected (call Connect first)")
	}

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}

	start := time.Now()
	result, err := c.roundTrip(ctx, "tools/call", params)
	duration := time.Since(start)

	status := "success"
	errMsg := ""
	if err != nil {
		status = "failed"
		errMsg = err.Error()
	}
	metrics.RecordToolCall(name, status)
	metrics.RecordToolCallDuration(name, duration.Seconds())
	logger.LogToolCall(logger.L(), name, status, duration.Milliseconds(), errMsg)

	if err != nil {
		return nil, err
	}
	return decodeEnvelope(name, result)
}

// roundTrip 执行一次 JSON-RPC 往返，返回 result 原始 JSON
func (c *MCPClient) roundTrip(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(rpcRequest{
		Jsonrpc: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed (check MCP endpoint %s): %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON-RPC: %v", ErrBadEnvelope, err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return nil, fmt.Errorf("%w: missing result field", ErrBadEnvelope)
	}
	return rpcResp.Result, nil
}

// decodeEnvelope 解包工具结果信封：result.content[0].text 为 JSON 载荷
func decodeEnvelope(tool string, result json.RawMessage) (json.RawMessage, error) {
	var tr toolResult
	if err := json.Unmarshal(result, &tr); err != nil {
		return nil, fmt.Errorf("%w: tool %s result is not an envelope: %v", ErrBadEnvelope, tool, err)
	}
	if len(tr.Content) == 0 {
		return nil, fmt.Errorf("%w: tool %s returned empty content", ErrBadEnvelope, tool)
	}
	first := tr.Content[0]
	if first.Type != "text" {
		return nil, fmt.Errorf("%w: tool %s returned content type %q, expected text", ErrBadEnvelope, tool, first.Type)
	}
	if tr.IsError {
		return nil, fmt.Errorf("tool %s failed: %s", tool, first.Text)
	}
	payload := json.RawMessage(first.Text)
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: tool %s payload is not valid JSON", ErrBadEnvelope, tool)
	}
	return payload, nil
}
