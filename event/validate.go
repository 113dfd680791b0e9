package event

// Validate checks the raw input against the input schema.
func (r *RawInput) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "event", Reason: "must not be empty"}
	}
	if !r.Product.Valid() {
		return &ValidationError{Field: "product", Reason: "is not a recognized product"}
	}
	return nil
}

// Validate checks the enriched event. The tracker validates both the raw
// input and the enriched form it produces from it.
func (e *Event) Validate() error {
	if e.Name == "" {
		return &ValidationError{Field: "event", Reason: "must not be empty"}
	}
	if !e.Product.Valid() {
		return &ValidationError{Field: "product", Reason: "is not a recognized product"}
	}
	if e.MessageID == "" {
		return &ValidationError{Field: "messageId", Reason: "must not be empty"}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}
	return nil
}
