package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	ErrRPC           = errors.New("sui rpc request failed")
	ErrExecution     = errors.New("sui transaction execution failed")
	ErrUnknownSigner = errors.New("no signer for sender address")
)

const defaultGasBudget uint64 = 10_000_000

// RPCError is an error object returned by the full node.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	return ErrRPC
}

// MoveCall is a single Move entry function invocation.
type MoveCall struct {
	Package       string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
}

func (m MoveCall) Target() string {
	return m.Package + "::" + m.Module + "::" + m.Function
}

// Bytes encodes b as a vector<u8> pure argument. An empty or nil slice
// becomes an empty vector.
func Bytes(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// Client talks JSON-RPC to a Sui full node.
type Client struct {
	rpcURL    string
	network   string
	keyring   Keyring
	gasBudget uint64
	logger    *logrus.Logger
	hc        *http.Client
	nextID    atomic.Uint64
}

type ClientOption func(*Client)

func WithGasBudget(budget uint64) ClientOption {
	return func(c *Client) {
		if budget > 0 {
			c.gasBudget = budget
		}
	}
}

func NewClient(rpcURL, network string, keyring Keyring, logger *logrus.Logger, hc *http.Client, opts ...ClientOption) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{
		rpcURL:    rpcURL,
		network:   network,
		keyring:   keyring,
		gasBudget: defaultGasBudget,
		logger:    logger,
		hc:        hc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Network() string {
	return c.network
}

// SubmitMoveCall builds, signs and executes call on behalf of sender and
// returns the transaction digest.
func (c *Client) SubmitMoveCall(ctx context.Context, sender string, call MoveCall) (string, error) {
	signer, ok := c.keyring.Lookup(sender)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSigner, sender)
	}

	typeArgs := call.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Arguments
	if args == nil {
		args = []any{}
	}

	built, err := c.call(ctx, "unsafe_moveCall",
		signer.Address(),
		call.Package,
		call.Module,
		call.Function,
		typeArgs,
		args,
		nil,
		strconv.FormatUint(c.gasBudget, 10),
	)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", call.Target(), err)
	}

	txB64 := built.Get("txBytes").String()
	txBytes, err := base64.StdEncoding.DecodeString(txB64)
	if err != nil || len(txBytes) == 0 {
		return "", fmt.Errorf("%w: unsafe_moveCall returned no transaction bytes", ErrRPC)
	}

	executed, err := c.call(ctx, "sui_executeTransactionBlock",
		txB64,
		[]string{signer.SignTransaction(txBytes)},
		map[string]bool{"showEffects": true},
		"WaitForLocalExecution",
	)
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", call.Target(), err)
	}

	digest := executed.Get("digest").String()
	if status := executed.Get("effects.status.status").String(); status != "success" {
		return digest, fmt.Errorf("%w: digest=%s status=%q error=%q",
			ErrExecution, digest, status, executed.Get("effects.status.error").String())
	}

	c.logger.WithContext(ctx).WithFields(logrus.Fields{
		"network": c.network,
		"target":  call.Target(),
		"sender":  signer.Address(),
		"digest":  digest,
	}).Info("sui transaction executed")

	return digest, nil
}

// Object is an owned object as returned with showContent.
type Object struct {
	ID       string
	Type     string
	DataType string
	Fields   json.RawMessage
	Error    string
}

// OwnedObjects returns the first page of objects of structType owned by
// owner, with their decoded Move fields.
func (c *Client) OwnedObjects(ctx context.Context, owner, structType string) ([]Object, error) {
	query := map[string]any{
		"filter":  map[string]string{"StructType": structType},
		"options": map[string]bool{"showContent": true},
	}
	res, err := c.call(ctx, "suix_getOwnedObjects", owner, query, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get owned objects: %w", err)
	}

	data := res.Get("data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: owned objects response has no data array", ErrRPC)
	}

	var out []Object
	for _, item := range data.Array() {
		if e := item.Get("error"); e.Exists() {
			out = append(out, Object{Error: e.Raw})
			continue
		}
		obj := item.Get("data")
		content := obj.Get("content")
		out = append(out, Object{
			ID:       obj.Get("objectId").String(),
			Type:     content.Get("type").String(),
			DataType: content.Get("dataType").String(),
			Fields:   json.RawMessage(content.Get("fields").Raw),
		})
	}
	return out, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

func (c *Client) call(ctx context.Context, method string, params ...any) (gjson.Result, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: encode %s: %v", ErrRPC, method, err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRPC, err)
	}
	hr.Header.Set("Content-Type", "application/json")

	hresp, err := c.hc.Do(hr)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("method", method).Error("sui rpc transport error")
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrRPC, err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read %s response: %v", ErrRPC, method, err)
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("%w: %s returned %s", ErrRPC, method, hresp.Status)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s returned invalid json", ErrRPC, method)
	}

	if e := gjson.GetBytes(body, "error"); e.Exists() && e.Type != gjson.Null {
		return gjson.Result{}, &RPCError{Code: e.Get("code").Int(), Message: e.Get("message").String()}
	}

	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s response has no result", ErrRPC, method)
	}
	return result, nil
}
