package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// CloudEvents envelope
	FieldEventID     = "event_id"
	FieldEventType   = "event_type"
	FieldEventSource = "event_source"

	// Pipeline
	FieldTransport = "transport"
	FieldBucket    = "bucket"
	FieldKey       = "key"
	FieldDstBucket = "dst_bucket"
	FieldDstKey    = "dst_key"
	FieldStage     = "stage"
	FieldOutcome   = "outcome"
)
