// Package storage keeps customer uploads (print images) and hands back a
// reference string. Callers treat the reference as opaque.
package storage

import (
	"fmt"
	"time"

	"borgo/internal/domain"
	"borgo/internal/validate"

	"github.com/google/uuid"
)

// Bucket is the bucket (or media sub-directory) that holds order images.
const Bucket = "order-images"

// objectName builds a collision-free key, partitioned by upload day. Only
// image files get a name.
func objectName(original, contentType string, now time.Time) (string, error) {
	ext, ok := validate.Image(original, contentType)
	if !ok {
		return "", domain.ErrNotImage
	}
	return fmt.Sprintf("%s/%s%s", now.Format("2006/01/02"), uuid.NewString(), ext), nil
}
