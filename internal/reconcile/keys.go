package reconcile

// Retried checkout sessions get a ".N" suffix appended after the ten-character
// base id; the backend key format does not allow dots, so the separator is
// rewritten to an underscore.
const retrySuffixOffset = 10

// NormalizeBackendKey converts a PSP order id into the key the backend stores
// the payment under. Ids without a retry suffix pass through unchanged.
func NormalizeBackendKey(id string) string {
	if len(id) > retrySuffixOffset && id[retrySuffixOffset] == '.' {
		return id[:retrySuffixOffset] + "_" + id[retrySuffixOffset+1:]
	}
	return id
}
