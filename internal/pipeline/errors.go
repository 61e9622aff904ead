package pipeline

import (
	"fmt"
	"strings"
)

// UploadError reports which primary keys never made it into the vector
// store after retries were exhausted.
type UploadError struct {
	Keys []string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %d records: %s", len(e.Keys), strings.Join(e.Keys, ","))
}
