package dispatch

// OutboundRequest is one message to deliver, already serialized.
//
// Queue may be a logical queue name or an already resolved queue URL;
// resolution accepts either. DelaySeconds must be non-negative.
type OutboundRequest struct {
	Queue        string
	Body         string
	DelaySeconds int32
}
