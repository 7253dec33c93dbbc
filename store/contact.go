package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/orochaa/access-logger/model"
)

// contactLogKey is the list keeping an audit trail of contact submissions.
const contactLogKey = "contact_log"

// AppendContact records one contact-form submission after its notification
// email has been handed off.
func (s *AccessStore) AppendContact(ctx context.Context, msg model.ContactMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal contact message: %w", err)
	}

	if err := s.redis.RPush(ctx, contactLogKey, data).Err(); err != nil {
		return fmt.Errorf("store contact message: %w", err)
	}

	return nil
}
