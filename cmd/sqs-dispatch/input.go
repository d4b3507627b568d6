package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/imperugo/sqs-dispatch/pkg/dispatch"
)

// inputRequest is one line of the newline-delimited JSON input.
//
// Body may be any JSON value; objects and arrays are forwarded verbatim as
// the message body, scalars are forwarded in their JSON encoding.
type inputRequest struct {
	Queue        string          `json:"queue"`
	Body         json.RawMessage `json:"body"`
	DelaySeconds *int32          `json:"delaySeconds"`
}

// parseRequests reads one JSON request per line, applying defaultQueue and
// defaultDelay where a line does not set them. Blank lines are skipped.
func parseRequests(r io.Reader, defaultQueue string, defaultDelay int32) ([]dispatch.OutboundRequest, error) {
	var requests []dispatch.OutboundRequest
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var in inputRequest
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return nil, fmt.Errorf("invalid request on line %d: %w", line, err)
		}
		if len(in.Body) == 0 {
			return nil, fmt.Errorf("invalid request on line %d: missing body", line)
		}

		queue := in.Queue
		if queue == "" {
			queue = defaultQueue
		}
		if queue == "" {
			return nil, fmt.Errorf("invalid request on line %d: no queue and no default queue set", line)
		}

		delay := defaultDelay
		if in.DelaySeconds != nil {
			delay = *in.DelaySeconds
		}

		requests = append(requests, dispatch.OutboundRequest{
			Queue:        queue,
			Body:         string(in.Body),
			DelaySeconds: delay,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return requests, nil
}
