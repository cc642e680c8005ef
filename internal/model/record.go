package model

// Bucket is one named sub-mapping of a record, e.g. the "com" bucket with
// normalized fields or the "ext" bucket with provider-specific fields.
type Bucket map[string]interface{}

// Record is a schema-agnostic bucketed map flowing through the pipeline.
// Conventional buckets: "com" (common/normalized), "ext" (provider
// extended), "raw" (unmodified source payload). Once a record has been
// enqueued it is shared by reference across queues and must not be mutated.
type Record map[string]Bucket

// Bucket returns the named bucket, or nil if the record does not carry it.
func (r Record) Bucket(name string) Bucket {
	if r == nil {
		return nil
	}
	return r[name]
}

// String returns the bucket value under key as a string, or "" if absent
// or not a string.
func (b Bucket) String(key string) string {
	if b == nil {
		return ""
	}
	s, _ := b[key].(string)
	return s
}

// Merge returns a new bucket holding a shallow copy of b with the
// overrides applied on top. The receiver is left unmodified.
func (b Bucket) Merge(overrides Bucket) Bucket {
	merged := make(Bucket, len(b)+len(overrides))
	for k, v := range b {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
