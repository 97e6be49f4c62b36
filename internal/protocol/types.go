package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Kind discriminates the three set operations.
type Kind int

const (
	Insert Kind = iota
	Contains
	Remove
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Contains:
		return "contains"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ReplyKind discriminates the two reply shapes.
type ReplyKind int

const (
	OperationFinished ReplyKind = iota
	ContainsResult
)

func (k ReplyKind) String() string {
	switch k {
	case OperationFinished:
		return "operation_finished"
	case ContainsResult:
		return "contains_result"
	default:
		return fmt.Sprintf("reply(%d)", int(k))
	}
}

// MarshalText lets replies carry a readable kind on the wire.
func (k ReplyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ReplyKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "operation_finished":
		*k = OperationFinished
	case "contains_result":
		*k = ContainsResult
	default:
		return fmt.Errorf("unknown reply kind %q", b)
	}
	return nil
}

// Requester is the address a reply is delivered to.
// Deliver must not block.
type Requester interface {
	Deliver(r Reply)
}

// RequesterFunc adapts a plain function to a Requester.
type RequesterFunc func(r Reply)

func (f RequesterFunc) Deliver(r Reply) { f(r) }

// Operation is a request routed down the tree. ID is chosen by the caller and
// echoed back unchanged in the reply.
type Operation struct {
	Requester Requester
	Kind      Kind
	ID        int64
	Elem      int
}

// Reply answers exactly one Operation. Found is only meaningful for
// ContainsResult.
type Reply struct {
	Kind  ReplyKind `json:"kind"`
	ID    int64     `json:"id"`
	Found bool      `json:"found"`
}

func Finished(id int64) Reply {
	return Reply{Kind: OperationFinished, ID: id}
}

func Result(id int64, found bool) Reply {
	return Reply{Kind: ContainsResult, ID: id, Found: found}
}

// Request is the JSON body accepted by the HTTP API for set operations.
type Request struct {
	ID   int64 `json:"id"`
	Elem int   `json:"elem"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
