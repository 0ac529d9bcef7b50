package marker

import (
	"testing"

	"gotest.tools/assert"
)

type mapContainer struct {
	annotations map[string]string
	labels      map[string]string
}

func (c *mapContainer) GetAnnotations() map[string]string      { return c.annotations }
func (c *mapContainer) GetLabels() map[string]string           { return c.labels }
func (c *mapContainer) SetAnnotations(annos map[string]string) { c.annotations = annos }
func (c *mapContainer) SetLabels(labels map[string]string)     { c.labels = labels }

func TestOverwriteFromPreservesUnrelatedKeys(t *testing.T) {
	from := &mapContainer{
		annotations: map[string]string{"a": "from-a", "b": "from-b"},
		labels:      map[string]string{"l": "from-l"},
	}
	into := &mapContainer{
		annotations: map[string]string{"b": "into-b", "c": "into-c"},
		labels:      map[string]string{"m": "into-m"},
	}

	OverwriteFrom(from, into)

	assert.DeepEqual(t, into.annotations, map[string]string{
		"a": "from-a",
		"b": "from-b",
		"c": "into-c",
	})
	assert.DeepEqual(t, into.labels, map[string]string{
		"l": "from-l",
		"m": "into-m",
	})
}

// Labels must be copied from the label source and annotations from the
// annotation source; a same-named key must never cross between the maps.
func TestOverwriteFromNoCrossContamination(t *testing.T) {
	from := &mapContainer{
		annotations: map[string]string{"shared": "annotation-value", "anno-only": "x"},
		labels:      map[string]string{"shared": "label-value"},
	}
	into := &mapContainer{
		annotations: map[string]string{},
		labels:      map[string]string{},
	}

	OverwriteFrom(from, into)

	assert.Equal(t, into.annotations["shared"], "annotation-value")
	assert.Equal(t, into.labels["shared"], "label-value")
	_, annoLeaked := into.labels["anno-only"]
	assert.Assert(t, !annoLeaked, "annotation key leaked into labels")
}

func TestOverwriteFromNilDestinationMaps(t *testing.T) {
	from := &mapContainer{
		annotations: map[string]string{"a": "1"},
		labels:      map[string]string{"l": "2"},
	}
	into := &mapContainer{}

	OverwriteFrom(from, into)

	assert.Equal(t, into.annotations["a"], "1")
	assert.Equal(t, into.labels["l"], "2")
}
