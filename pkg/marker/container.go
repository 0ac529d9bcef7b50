package marker

// Container is a collection of markers represented as Annotations and
// Labels.
type Container interface {
	// GetAnnotations retrieves the markers that represent annotations.
	GetAnnotations() map[string]string
	// GetLabels retrieves the markers that represent labels.
	GetLabels() map[string]string
}

// WriteContainer is a Container that may also be written into.
type WriteContainer interface {
	Container
	SetAnnotations(map[string]string)
	SetLabels(map[string]string)
}

// OverwriteFrom merges the markers of one container into another in place.
// Keys present in `into` but absent from `from` are preserved. Annotations
// and labels are merged independently from their own source maps; neither
// may leak into the other. The codec performs no I/O - callers persist
// `into` themselves.
func OverwriteFrom(from Container, into WriteContainer) {
	intoAnnos := mergedCopy(into.GetAnnotations(), from.GetAnnotations())
	intoLabels := mergedCopy(into.GetLabels(), from.GetLabels())

	into.SetAnnotations(intoAnnos)
	into.SetLabels(intoLabels)
}

func mergedCopy(into, from map[string]string) map[string]string {
	if into == nil {
		into = make(map[string]string, len(from))
	}
	for k := range from {
		into[k] = from[k]
	}
	return into
}
